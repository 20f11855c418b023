package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	gitDirectoryNameConstant          = ".git"
	manifestFileNameConstant          = "manifest.json"
	zipFileExtensionConstant          = ".zip"
	fallbackArchiveBaseNameConstant   = "release"
	archiveCreationTemplateConstant   = "unable to create archive %s: %w"
	archiveWalkErrorTemplateConstant  = "unable to read source tree %s: %w"
	archiveEntryErrorTemplateConstant = "unable to add %s to archive: %w"
	archivePathSeparatorConstant      = "/"
)

// SafeArchiveName derives a filesystem-safe zip file name from a release name.
//
// Characters outside letters, digits, spaces, dots, underscores, and dashes
// are dropped, mirroring what the shop API accepts for payload names.
func SafeArchiveName(releaseName string) string {
	var filteredName strings.Builder
	for _, nameRune := range releaseName {
		switch {
		case unicode.IsLetter(nameRune), unicode.IsDigit(nameRune):
			filteredName.WriteRune(nameRune)
		case nameRune == ' ', nameRune == '.', nameRune == '_', nameRune == '-':
			filteredName.WriteRune(nameRune)
		}
	}

	trimmedName := strings.TrimSpace(filteredName.String())
	if len(trimmedName) == 0 {
		trimmedName = fallbackArchiveBaseNameConstant
	}
	return trimmedName + zipFileExtensionConstant
}

// CreateZip compresses the source directory into a zip file at outputPath.
//
// .git directories and manifest.json files are excluded, and entry paths use
// forward slashes relative to the source directory.
func CreateZip(sourceDirectory string, outputPath string) error {
	archiveFile, creationError := os.Create(outputPath)
	if creationError != nil {
		return fmt.Errorf(archiveCreationTemplateConstant, outputPath, creationError)
	}
	defer func() { _ = archiveFile.Close() }()

	zipWriter := zip.NewWriter(archiveFile)

	walkError := filepath.WalkDir(sourceDirectory, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}

		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitDirectoryNameConstant {
				return filepath.SkipDir
			}
			return nil
		}

		if directoryEntry.Name() == manifestFileNameConstant {
			return nil
		}

		relativePath, relativeError := filepath.Rel(sourceDirectory, entryPath)
		if relativeError != nil {
			return relativeError
		}

		return addFileEntry(zipWriter, entryPath, filepath.ToSlash(relativePath))
	})
	if walkError != nil {
		_ = zipWriter.Close()
		return fmt.Errorf(archiveWalkErrorTemplateConstant, sourceDirectory, walkError)
	}

	if closeError := zipWriter.Close(); closeError != nil {
		return fmt.Errorf(archiveCreationTemplateConstant, outputPath, closeError)
	}

	return nil
}

func addFileEntry(zipWriter *zip.Writer, sourcePath string, archivePath string) error {
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(archiveEntryErrorTemplateConstant, archivePath, openError)
	}
	defer func() { _ = sourceFile.Close() }()

	entryHeader := &zip.FileHeader{Name: archivePath, Method: zip.Deflate}
	entryWriter, entryError := zipWriter.CreateHeader(entryHeader)
	if entryError != nil {
		return fmt.Errorf(archiveEntryErrorTemplateConstant, archivePath, entryError)
	}

	if _, copyError := io.Copy(entryWriter, sourceFile); copyError != nil {
		return fmt.Errorf(archiveEntryErrorTemplateConstant, archivePath, copyError)
	}

	return nil
}
