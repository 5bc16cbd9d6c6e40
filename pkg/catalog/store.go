// Package catalog is the badger-backed metadata store that answers the
// decompiler's lookups: data structure templates, table indexes, data
// dictionary titles and business function object names.
package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/dstmpl"
	"github.com/duynguyendang/gerd/pkg/erd"
	"github.com/klauspost/compress/s2"
)

// Key prefixes. Every name below a prefix is stored upper-cased.
const (
	prefixTemplate = "tmpl/"
	prefixIndex    = "idx/"
	prefixTitle    = "dd/"
	prefixBizFunc  = "bf/"
)

// Store is a catalog database. It implements erd.SpecResolver.
type Store struct {
	db       *badger.DB
	readOnly bool
}

var _ erd.SpecResolver = (*Store)(nil)

// Open opens (or creates) the catalog described by cfg.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}
	slog.Debug("opening catalog", "dir", cfg.DataDir, "in_memory", cfg.InMemory, "profile", cfg.Profile)

	db, err := badger.Open(buildBadgerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Store{db: db, readOnly: cfg.ReadOnly}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(prefix, name string) []byte {
	return []byte(prefix + strings.ToUpper(strings.TrimSpace(name)))
}

func (s *Store) set(k, v []byte) error {
	if s.readOnly {
		return fmt.Errorf("catalog is read-only: %w", errors.ErrInvalidInput)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, v)
	})
}

// get returns a copy of the value at k, or ErrNotFound.
func (s *Store) get(k []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", k, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", k, err)
	}
	return data, nil
}

// PutTemplate validates a template document and stores it, s2-compressed,
// under its own szTmplName.
func (s *Store) PutTemplate(templateXML []byte) (*dstmpl.Template, error) {
	t, err := dstmpl.Parse("template", templateXML)
	if err != nil {
		return nil, err
	}
	if err := s.set(key(prefixTemplate, t.Name), s2.Encode(nil, templateXML)); err != nil {
		return nil, err
	}
	return t, nil
}

// TemplateXML returns the stored template document.
func (s *Store) TemplateXML(name string) ([]byte, error) {
	data, err := s.get(key(prefixTemplate, name))
	if err != nil {
		return nil, err
	}
	decoded, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress template %s: %w", name, err)
	}
	return decoded, nil
}

// DataStructureTemplate loads and parses a stored template.
func (s *Store) DataStructureTemplate(ctx context.Context, name string) (*dstmpl.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.TemplateXML(name)
	if err != nil {
		return nil, err
	}
	return dstmpl.Parse(name, data)
}

// ListTemplates returns the stored template names in key order.
func (s *Store) ListTemplates() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixTemplate)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixTemplate))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return names, nil
}

// PutTableIndexes replaces the index list of a table.
func (s *Store) PutTableIndexes(table string, indexes []erd.IndexInfo) error {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("table name is empty: %w", errors.ErrInvalidInput)
	}
	data, err := json.Marshal(indexes)
	if err != nil {
		return fmt.Errorf("failed to encode indexes for %s: %w", table, err)
	}
	return s.set(key(prefixIndex, table), data)
}

// TableIndexes returns the indexes of a table.
func (s *Store) TableIndexes(ctx context.Context, table string) ([]erd.IndexInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.get(key(prefixIndex, table))
	if err != nil {
		return nil, err
	}
	var indexes []erd.IndexInfo
	if err := json.Unmarshal(data, &indexes); err != nil {
		return nil, fmt.Errorf("corrupt index list for %s: %w", table, err)
	}
	return indexes, nil
}

// PutTitle stores the data dictionary title of an item.
func (s *Store) PutTitle(item, title string) error {
	if strings.TrimSpace(item) == "" {
		return fmt.Errorf("data item is empty: %w", errors.ErrInvalidInput)
	}
	return s.set(key(prefixTitle, item), []byte(title))
}

// DataDictionaryTitles looks up all items in one read transaction. Items
// without a stored title are left out of the result.
func (s *Store) DataDictionaryTitles(ctx context.Context, items []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(items))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, it := range items {
			if _, seen := titles[it]; seen {
				continue
			}
			item, err := txn.Get(key(prefixTitle, it))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			titles[it] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}
	return titles, nil
}

// PutBusinessFunction records the object name of the business function
// whose parameter template is templateName.
func (s *Store) PutBusinessFunction(templateName, object string) error {
	if strings.TrimSpace(templateName) == "" {
		return fmt.Errorf("template name is empty: %w", errors.ErrInvalidInput)
	}
	return s.set(key(prefixBizFunc, templateName), []byte(object))
}

// BusinessFunctionName returns the object name registered for templateName.
func (s *Store) BusinessFunctionName(ctx context.Context, templateName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := s.get(key(prefixBizFunc, templateName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
