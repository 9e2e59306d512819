package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

var errEmptyPrompt = errors.New("prompt file is empty")

// idealSystem is shared by the ideal and exact system prompts.
const idealSystem = "You are a knowledgeable assistant for biomedical questions."

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptIdealSystem: idealSystem,

	driven.PromptIdealUser: `Question: %s
Relevant snippets:
%s
Please provide a concise and comprehensive answer to the question based on these snippets.`,

	driven.PromptExactUser: `Question: %s
Relevant snippets:
%s
Exact answer:`,

	driven.PromptExactSystem("factoid"): idealSystem + ` Answer with a single entity name only (for example a gene, protein, drug or disease), with no explanation or trailing punctuation.`,

	driven.PromptExactSystem("list"): idealSystem + ` Answer with a semicolon-separated list of unique entity names only, with no explanation.`,

	driven.PromptExactSystem("yesno"): idealSystem + ` Answer with exactly one word: "Yes" or "No".`,

	driven.PromptExactSystem("summary"): idealSystem + ` This is a summary question, so an exact answer is not applicable. Reply exactly: An exact answer is not applicable to summary questions.`,

	driven.PromptKeywords: `Extract the most important biomedical search terms from the question below for a PubMed search.
Return ONLY a JSON array of strings, for example ["BRCA1", "breast cancer"].

Question: %s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.bioqa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".bioqa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err == nil && prompt == "" {
		err = errEmptyPrompt
	}
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# bioqa Prompts

This directory contains customisable prompts used for answer generation.

## Files

- ` + "`ideal_system.txt`" + ` - System prompt for paragraph (ideal) answers
- ` + "`ideal_user.txt`" + ` - Question and snippets for ideal answers
- ` + "`exact_user.txt`" + ` - Question and snippets for exact answers
- ` + "`exact_system_factoid.txt`" + `, ` + "`exact_system_list.txt`" + `,
  ` + "`exact_system_yesno.txt`" + `, ` + "`exact_system_summary.txt`" + ` - Exact answer shape per question type
- ` + "`keywords.txt`" + ` - Asks the model for PubMed search terms

## Customisation

Edit any file to customise generation. Changes take effect on the next command.
An empty file falls back to the built-in default.

## Format Placeholders

The user prompts take two ` + "`%s`" + ` placeholders: the question, then the snippets.
The keywords prompt takes one ` + "`%s`" + ` for the question.
Ensure customised prompts keep their placeholders in the same order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
