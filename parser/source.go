package parser

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// LoadDir walks root and parses every file the registry supports. Files are
// visited in lexical order so repeated loads yield the same document order.
// Identifiers are slash-separated and rooted at "/" relative to root, e.g.
// root/archive/marx/works/1848/x.htm becomes "/archive/marx/works/1848/x.htm".
//
// Files that fail to parse are logged and skipped. Unsupported extensions are
// skipped silently.
func LoadDir(ctx context.Context, root string, reg *Registry, log *slog.Logger) ([]Document, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}

	var paths []string
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if file != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, file)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, file := range paths {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		p, err := reg.ForPath(file)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				continue
			}
			return docs, err
		}
		tree, err := p.Parse(ctx, file)
		if err != nil {
			log.Warn("parser: skipping unparseable file", "path", file, "error", err)
			continue
		}
		docs = append(docs, Document{Identifier: identifierFor(root, file), Root: tree})
	}
	log.Info("parser: loaded documents", "root", root, "files", len(paths), "documents", len(docs))
	return docs, nil
}

func identifierFor(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = file
	}
	return "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

// ResolveLink resolves href against the identifier of the document that
// contains it and returns a cleaned, slash-rooted path. Scheme, host, query
// and fragment are dropped. Returns "" for empty, mailto and javascript links.
func ResolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	if i := strings.Index(href, "://"); i >= 0 {
		rest := href[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return path.Clean(rest[j:])
		}
		return "/"
	}
	if strings.HasPrefix(href, "/") {
		return path.Clean(href)
	}
	return path.Clean(path.Join(path.Dir(StripHost(base)), href))
}

// StripHost removes a URL scheme and host from identifier, leaving the path.
func StripHost(identifier string) string {
	if i := strings.Index(identifier, "://"); i >= 0 {
		rest := identifier[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j:]
		}
		return "/"
	}
	return identifier
}
