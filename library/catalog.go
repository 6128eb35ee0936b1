package library

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Catalog is a seed file for bulk imports:
//
//	books:
//	  - id: 1
//	    title: Dune
//	    author: Frank Herbert
//	    category: SciFi
//	members:
//	  - id: 10
//	    name: Ann
//	    email: a@x.com
type Catalog struct {
	Books   []CatalogBook   `yaml:"books"`
	Members []CatalogMember `yaml:"members"`
}

type CatalogBook struct {
	ID       int64  `yaml:"id"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Category string `yaml:"category"`
}

type CatalogMember struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// ImportResult counts what an import added.
type ImportResult struct {
	Books   int
	Members int
}

// ReadCatalog parses a YAML catalog. Unknown keys are rejected so typos in a
// seed file do not silently drop fields.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Import adds every catalog entry through lm, with the usual overwrite
// semantics. Persistence failures do not stop the import; they are joined
// into the returned error.
func (lm *LibraryManager) Import(c *Catalog) (ImportResult, error) {
	var res ImportResult
	var errs []error
	for _, b := range c.Books {
		if err := lm.AddBook(b.ID, b.Title, b.Author, b.Category); err != nil {
			errs = append(errs, err)
		}
		res.Books++
	}
	for _, m := range c.Members {
		if err := lm.AddMember(m.ID, m.Name, m.Email); err != nil {
			errs = append(errs, err)
		}
		res.Members++
	}
	return res, errors.Join(errs...)
}
