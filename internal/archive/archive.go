// Package archive reads members of data download package zip archives.
//
// Every accessor is tolerant: a missing archive, a corrupt archive or an absent member
// produces an empty result and a log entry, never an error.
package archive

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Member describes one file of an archive.
type Member struct {
	Name           string
	Size           uint64
	CompressedSize uint64
}

// ExtractMember returns the content of the first member, in archive order, whose name ends with target.
// Matching is case sensitive. An empty buffer is returned when the archive can't be read or nothing matches.
func ExtractMember(log *slog.Logger, zipPath, target string) *bytes.Buffer {
	out := &bytes.Buffer{}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		log.Error("Could not open archive", "archive", zipPath, "error", err)
		return out
	}
	defer r.Close()

	for _, f := range r.File {
		log.Debug("Contained in archive", "member", f.Name)
		if !strings.HasSuffix(f.Name, target) {
			continue
		}
		if err := readMember(f, out); err != nil {
			log.Error("Could not read archive member", "member", f.Name, "error", err)
			return &bytes.Buffer{}
		}
		return out
	}

	log.Warn("File not found in archive", "target", target)
	return out
}

func readMember(f *zip.File, w io.Writer) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(w, rc)
	return err
}

// Members lists the file members of the archive, skipping directories.
// ok is false when the archive can't be read.
func Members(log *slog.Logger, zipPath string) (members []Member, ok bool) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		log.Error("Could not open archive", "archive", zipPath, "error", err)
		return nil, false
	}
	defer r.Close()

	members = make([]Member, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, Member{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
		})
	}
	return members, true
}

// MemberNames returns the base name of every file member.
func MemberNames(log *slog.Logger, zipPath string) (names []string, ok bool) {
	members, ok := Members(log, zipPath)
	if !ok {
		return nil, false
	}
	names = make([]string, 0, len(members))
	for _, m := range members {
		log.Debug("Found member in archive", "name", path.Base(m.Name))
		names = append(names, path.Base(m.Name))
	}
	return names, true
}

// ReadFileOrFirstMember returns the first member of the archive at p, or the file itself when p isn't a zip archive.
// An empty buffer is returned when nothing can be read.
func ReadFileOrFirstMember(log *slog.Logger, p string) *bytes.Buffer {
	out := &bytes.Buffer{}

	r, err := zip.OpenReader(p)
	if err != nil {
		log.Debug("Not a zip archive, reading as plain file", "path", p, "error", err)
		b, err := os.ReadFile(p)
		if err != nil {
			log.Error("Could not read file", "path", p, "error", err)
			return out
		}
		out.Write(b)
		return out
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := readMember(f, out); err != nil {
			log.Error("Could not read archive member", "member", f.Name, "error", err)
			return &bytes.Buffer{}
		}
		return out
	}

	log.Warn("Archive is empty", "archive", p)
	return out
}
