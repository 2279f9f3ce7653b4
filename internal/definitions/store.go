/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package definitions

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

const (
	// BuiltInID identifies the embedded definitions file in the store.
	BuiltInID = "built-in"

	// MaxFileSize limits definitions file size (4MB). Real definition
	// files are a few kilobytes; anything bigger is a mistake.
	MaxFileSize = 4 * 1024 * 1024

	// MaxFiles limits the number of registered definition files.
	MaxFiles = 20
)

// FileInfo describes one registered definitions file.
type FileInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Categories int    `json:"categories"`
	BuiltIn    bool   `json:"builtIn"`
	IsLoaded   bool   `json:"isLoaded"`
}

// CategoryInfo describes one category of a definitions file for listing.
type CategoryInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldCount  int    `json:"fieldCount"`
}

// Store manages definition files (the embedded default plus any loaded
// from disk or uploaded) and provides category lookup.
//
// Sets are immutable after load; the mutex only guards the registry maps.
type Store struct {
	files  map[string]*FileInfo
	sets   map[string]*Set
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewStore creates a store pre-populated with the built-in definitions.
func NewStore(logger *slog.Logger) (*Store, error) {
	def, err := Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in definitions: %w", err)
	}

	s := &Store{
		files:  make(map[string]*FileInfo),
		sets:   make(map[string]*Set),
		logger: logger,
	}

	s.files[BuiltInID] = &FileInfo{
		ID:         BuiltInID,
		Name:       "Built-in (SBG Ellipse)",
		Categories: len(def.Categories),
		BuiltIn:    true,
		IsLoaded:   true,
	}
	s.sets[BuiltInID] = def

	return s, nil
}

// LoadFile parses a definitions file from disk and adds it to the store.
func (s *Store) LoadFile(id, name, path string) error {
	set, err := s.parseFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the write lock so concurrent loads cannot slip past
	// the limit. Replacing an existing entry does not grow the store.
	if _, exists := s.files[id]; !exists && len(s.files) >= MaxFiles {
		return fmt.Errorf("maximum number of definition files reached (%d), please delete some files first", MaxFiles)
	}

	s.files[id] = &FileInfo{
		ID:         id,
		Name:       name,
		Path:       path,
		Categories: len(set.Categories),
		IsLoaded:   true,
	}
	s.sets[id] = set

	s.logger.Debug("Definitions file loaded", "id", id, "categories", len(set.Categories))
	return nil
}

// RegisterFile adds a file to the registry without parsing its content.
// This supports lazy loading of files found on disk at startup.
func (s *Store) RegisterFile(id, name, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[id]; !exists {
		s.files[id] = &FileInfo{
			ID:       id,
			Name:     name,
			Path:     path,
			IsLoaded: false,
		}
	}
}

// LoadFileContent parses the definitions of a registered file into memory.
func (s *Store) LoadFileContent(id string) error {
	s.mu.RLock()
	info, exists := s.files[id]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("definitions file not found: %s", id)
	}

	if info.IsLoaded {
		return nil // Already loaded
	}

	set, err := s.parseFile(info.Path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[id] = &FileInfo{
		ID:         id,
		Name:       info.Name,
		Path:       info.Path,
		Categories: len(set.Categories),
		IsLoaded:   true,
	}
	s.sets[id] = set

	s.logger.Debug("Definitions parsed on first use", "id", id, "categories", len(set.Categories))
	return nil
}

// parseFile checks the file size and parses it into a validated set.
func (s *Store) parseFile(path string) (*Set, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large (max %d MB)", MaxFileSize/(1024*1024))
	}

	return Load(path)
}

// Files returns all registered definition files, built-in first, then
// sorted by name.
func (s *Store) Files() []*FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*FileInfo, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].BuiltIn != files[j].BuiltIn {
			return files[i].BuiltIn
		}
		return files[i].Name < files[j].Name
	})

	return files
}

// File returns a specific definitions file by ID.
func (s *Store) File(id string) (*FileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	return f, ok
}

// Categories returns the categories of a loaded file, sorted by name.
func (s *Store) Categories(fileID string) ([]CategoryInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[fileID]
	if !ok {
		return nil, fmt.Errorf("definitions not loaded for file: %s", fileID)
	}

	infos := make([]CategoryInfo, 0, len(set.Categories))
	for _, name := range set.CategoryNames() {
		cat := set.Categories[name]
		infos = append(infos, CategoryInfo{
			Name:        name,
			Description: cat.Description,
			FieldCount:  len(cat.Fields),
		})
	}

	return infos, nil
}

// Category returns the field definitions of one category in one file.
// A missing file or category is a lookup failure, never a panic.
func (s *Store) Category(fileID, name string) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[fileID]
	if !ok {
		return Category{}, fmt.Errorf("definitions not loaded for file: %s", fileID)
	}

	cat, ok := set.Category(name)
	if !ok {
		return Category{}, fmt.Errorf("unknown status category: %s", name)
	}

	return cat, nil
}

// Delete removes a definitions file from the store.
// The built-in set cannot be deleted.
func (s *Store) Delete(id string) error {
	if id == BuiltInID {
		return fmt.Errorf("the built-in definitions cannot be deleted")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("definitions file not found: %s", id)
	}

	delete(s.files, id)
	delete(s.sets, id)

	s.logger.Debug("Definitions file removed", "id", id)
	return nil
}

// DeleteAll clears every definitions file except the built-in set.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.files) - 1

	builtinInfo := s.files[BuiltInID]
	builtinSet := s.sets[BuiltInID]

	s.files = map[string]*FileInfo{BuiltInID: builtinInfo}
	s.sets = map[string]*Set{BuiltInID: builtinSet}

	s.logger.Debug("Definitions store cleared", "removed", removed)
}
