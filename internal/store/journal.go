package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Revision describes one saved version of a slot.
type Revision struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// GitSlot stores every key as a JSON file in one git repository and commits
// each save, so earlier versions of a profile's lists stay retrievable.
type GitSlot struct {
	baseDir string
	author  string
	mu      sync.Mutex
	repo    *git.Repository
}

// NewGitSlot opens the repository at baseDir, initialising it when absent.
func NewGitSlot(baseDir string) (*GitSlot, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	repo, err := git.PlainOpen(baseDir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(baseDir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open journal repo: %w", err)
	}
	return &GitSlot{baseDir: baseDir, author: "JanSeva", repo: repo}, nil
}

func (g *GitSlot) Load(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(g.baseDir, journalFile(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

// Save writes value and commits it. Saving a value identical to the current
// file creates no commit.
func (g *GitSlot) Save(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := journalFile(key)
	path := filepath.Join(g.baseDir, name)
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, value) {
		return nil
	}
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := worktree.Add(name); err != nil {
		return fmt.Errorf("git add %s: %w", name, err)
	}
	_, err = worktree.Commit("update "+key, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.author,
			Email: "journal@janseva.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func (g *GitSlot) Ping(context.Context) error {
	_, err := os.Stat(filepath.Join(g.baseDir, ".git"))
	if err != nil {
		return fmt.Errorf("stat journal repo: %w", err)
	}
	return nil
}

// History lists the commits that touched key, newest first.
func (g *GitSlot) History(_ context.Context, key string, limit int) ([]Revision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []Revision{}, nil
		}
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	name := journalFile(key)
	iter, err := g.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Revision, 0)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toRevision(commitObj))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Revision returns key's content as of the commit identified by hash, which
// may be abbreviated.
func (g *GitSlot) Revision(_ context.Context, key, hash string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	resolved, err := resolveHash(g.repo, hash)
	if err != nil {
		return nil, err
	}
	commitObj, err := g.repo.CommitObject(resolved)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	file, err := commitObj.File(journalFile(key))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load %s from commit: %w", key, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open content reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read content bytes: %w", err)
	}
	return raw, nil
}

// journalFile maps a slot key to a file name. Bytes outside [A-Za-z0-9-]
// are written as _XX so distinct keys never share a file.
func journalFile(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String() + ".json"
}

func toRevision(commitObj *object.Commit) Revision {
	return Revision{
		Hash:      commitObj.Hash.String()[:7],
		Message:   strings.TrimSpace(commitObj.Message),
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
