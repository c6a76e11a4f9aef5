package persist

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImportStrategy selects how ImportZip treats an existing target domain.
type ImportStrategy string

const (
	// StrategyMerge extracts over the existing domain; archive files may
	// overwrite existing ones.
	StrategyMerge ImportStrategy = "merge"

	// StrategyReplace deletes the existing domain directory first.
	StrategyReplace ImportStrategy = "replace"

	// StrategyNewDomain imports into <domain>_1, <domain>_2, ... until
	// an unused name is found.
	StrategyNewDomain ImportStrategy = "new-domain"
)

// ExportZip packs the domain directory into a zip archive at zipPath.
// Every member path is prefixed with the domain name. The transient
// lock sentinel is not exported: importing one would leave the target
// domain locked until a timeout.
func (d *Domain) ExportZip(zipPath string, overwrite bool) error {
	if _, err := os.Stat(d.Dir()); err != nil {
		return domainErrorf(ErrCodeNotFound, d.name, d.Dir(), "missing domain directory")
	}
	if !overwrite {
		if _, err := os.Stat(zipPath); err == nil {
			return domainErrorf(ErrCodeExists, d.name, zipPath, "archive already exists")
		}
	}
	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return domainErrorf(ErrCodeWriteFailed, d.name, zipPath, "create archive dir: %v", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return domainErrorf(ErrCodeWriteFailed, d.name, zipPath, "create archive: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(d.Dir(), func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || entry.Name() == lockFileName {
			return nil
		}
		rel, err := filepath.Rel(d.Dir(), path)
		if err != nil {
			return err
		}
		w, err := zw.Create(d.name + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return domainErrorf(ErrCodeWriteFailed, d.name, zipPath, "pack archive: %v", err)
	}
	if err := zw.Close(); err != nil {
		return domainErrorf(ErrCodeWriteFailed, d.name, zipPath, "finalize archive: %v", err)
	}
	return nil
}

// ImportZip extracts the "<domain>/" subtree of an archive produced by
// ExportZip into <root>/<target>, where target depends on the strategy.
// It returns the domain name actually used, which differs from domain
// only under StrategyNewDomain.
func ImportZip(root, zipPath, domain string, strategy ImportStrategy) (string, error) {
	switch strategy {
	case StrategyMerge, StrategyReplace, StrategyNewDomain:
	default:
		return "", domainErrorf(ErrCodeInvalidArchive, domain, zipPath, "invalid import strategy %q", strategy)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domainErrorf(ErrCodeNotFound, domain, zipPath, "missing archive")
		}
		return "", &DomainError{Code: ErrCodeInvalidArchive, Domain: domain, Path: zipPath, Msg: "open archive", Err: err}
	}
	defer zr.Close()

	target := domain
	targetDir := filepath.Join(root, target)

	if strategy == StrategyNewDomain {
		if _, err := os.Stat(targetDir); err == nil {
			for i := 1; ; i++ {
				cand := fmt.Sprintf("%s_%d", domain, i)
				candDir := filepath.Join(root, cand)
				if _, err := os.Stat(candDir); os.IsNotExist(err) {
					target = cand
					targetDir = candDir
					break
				}
			}
		}
	}

	if strategy == StrategyReplace {
		if err := os.RemoveAll(targetDir); err != nil {
			return "", domainErrorf(ErrCodeWriteFailed, target, targetDir, "remove existing domain: %v", err)
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", domainErrorf(ErrCodeWriteFailed, target, targetDir, "create domain dir: %v", err)
	}

	prefix := domain + "/"
	for _, member := range zr.File {
		if member.FileInfo().IsDir() || !strings.HasPrefix(member.Name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(member.Name, prefix)

		// Zip-slip guard: member paths must stay inside the target.
		rel = filepath.FromSlash(rel)
		if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
			return "", domainErrorf(ErrCodeInvalidArchive, target, zipPath, "unsafe archive member %q", member.Name)
		}
		dst := filepath.Join(targetDir, rel)
		if !strings.HasPrefix(dst, targetDir+string(os.PathSeparator)) {
			return "", domainErrorf(ErrCodeInvalidArchive, target, zipPath, "unsafe archive member %q", member.Name)
		}

		if err := extractMember(member, dst); err != nil {
			return "", &DomainError{Code: ErrCodeWriteFailed, Domain: target, Path: dst, Msg: "extract " + member.Name, Err: err}
		}
	}

	return target, nil
}

func extractMember(member *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyTo copies this domain (index plus, optionally, revision files) to
// another persist root. An existing destination is refused unless
// overwrite is set, in which case it is replaced wholesale.
func (d *Domain) CopyTo(dstRoot string, includeDocs, overwrite bool) (string, error) {
	dstDir := filepath.Join(dstRoot, d.name)

	if _, err := os.Stat(dstDir); err == nil {
		if !overwrite {
			return "", domainErrorf(ErrCodeExists, d.name, dstDir, "destination domain already exists")
		}
		if err := os.RemoveAll(dstDir); err != nil {
			return "", domainErrorf(ErrCodeWriteFailed, d.name, dstDir, "remove destination: %v", err)
		}
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", domainErrorf(ErrCodeWriteFailed, d.name, dstDir, "create destination: %v", err)
	}

	if data, err := os.ReadFile(d.IndexPath()); err == nil {
		if err := atomicWrite(filepath.Join(dstDir, indexFileName), data); err != nil {
			return "", domainErrorf(ErrCodeWriteFailed, d.name, dstDir, "copy index: %v", err)
		}
	}

	if includeDocs {
		ids, err := d.ListDocIDs()
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			data, err := os.ReadFile(d.DocPath(id))
			if err != nil {
				continue
			}
			if err := atomicWrite(filepath.Join(dstDir, id+".json"), data); err != nil {
				return "", domainErrorf(ErrCodeWriteFailed, d.name, dstDir, "copy revision %s: %v", id, err)
			}
		}
	}

	return dstDir, nil
}
