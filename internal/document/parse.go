package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"domark/internal/logging"
)

// Default info-string tags marking the two structured fence kinds.
const (
	DefaultConfigLang   = "session-config"
	DefaultMetadataLang = "msg-metadata"
)

// Options controls one parse call.
type Options struct {
	// SourcePath is the file the text was read from. Used to derive the
	// base directory for relative inclusions and as the cycle-detection key.
	// May be empty for in-memory content.
	SourcePath string

	// BaseDir overrides the inclusion base directory. When empty it is
	// derived from SourcePath, falling back to the current directory.
	BaseDir string

	// ResolveInclusions toggles [include](...) expansion.
	ResolveInclusions bool

	// ConfigLang and MetadataLang override the fence tags. Empty means the
	// defaults.
	ConfigLang   string
	MetadataLang string
}

func (o *Options) configLang() string {
	if o.ConfigLang == "" {
		return DefaultConfigLang
	}
	return o.ConfigLang
}

func (o *Options) metadataLang() string {
	if o.MetadataLang == "" {
		return DefaultMetadataLang
	}
	return o.MetadataLang
}

// Parse turns raw document text into a ParsedDocument. It never fails:
// malformed structured blocks are recorded in the result's Errors and the
// best-effort document is returned. Callers must inspect Errors even on a
// normal return.
func Parse(text string, opts Options) *ParsedDocument {
	return parse(text, opts, make(map[string]bool))
}

// ParseFile reads and parses the document at path. Only the read itself can
// fail; every structural problem lands in the result's error list.
func ParseFile(path string, opts Options) (*ParsedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	opts.SourcePath = path
	return Parse(string(raw), opts), nil
}

// parse is the single entry point shared by top-level and recursive inclusion
// parses. visiting is the in-flight path set for cycle detection, shared by
// reference down the recursion.
func parse(text string, opts Options, visiting map[string]bool) *ParsedDocument {
	doc := &ParsedDocument{}
	timer := logging.StartTimer(logging.CategoryDocument, "parse")
	defer timer.Stop()

	absPath, baseDir := resolveSource(doc, opts)

	body := text
	if opts.ResolveInclusions {
		body = doc.resolveInclusions(text, absPath, baseDir, visiting)
	}

	// RawLines keep the inclusion-resolved text, front matter included,
	// so downstream slicing sees exactly what the parser saw.
	doc.RawLines = splitLinesKeepEnds(body)

	body = doc.extractFrontMatter(body)

	doc.parseBody(body, opts)

	logging.Document("parsed document %s: %d messages, %d errors",
		opts.SourcePath, len(doc.Messages), len(doc.Errors))
	return doc
}

// resolveSource derives the cycle-detection key and the inclusion base
// directory. A missing base directory is recorded as an error and parsing
// falls back to the current directory so a partial document still comes back.
func resolveSource(doc *ParsedDocument, opts Options) (absPath, baseDir string) {
	if opts.SourcePath != "" {
		if abs, err := filepath.Abs(opts.SourcePath); err == nil {
			absPath = abs
		} else {
			absPath = opts.SourcePath
		}
		if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
			baseDir = filepath.Dir(absPath)
		}
	}

	if opts.BaseDir != "" {
		baseDir = opts.BaseDir
	}
	if baseDir == "" {
		baseDir = "."
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	if _, err := os.Stat(baseDir); err != nil {
		doc.addErrorf("Base directory for inclusions %q does not exist.", baseDir)
		baseDir, _ = filepath.Abs(".")
	}

	if absPath == "" {
		// In-memory content still needs a unique-enough cycle key.
		absPath = filepath.Join(baseDir, fmt.Sprintf("__in_memory_%p__", doc))
	}
	return absPath, baseDir
}

var frontMatterCloseRe = regexp.MustCompile(`(?m)^---[ \t]*$`)

// extractFrontMatter strips a leading "---" YAML block, storing its mapping
// in FrontMatter. A block that does not parse as YAML is a recorded error and
// the body is left untouched.
func (d *ParsedDocument) extractFrontMatter(body string) string {
	if !strings.HasPrefix(body, "---\n") && strings.TrimRight(body, "\n") != "---" {
		return body
	}

	rest := body[strings.Index(body, "\n")+1:]
	loc := frontMatterCloseRe.FindStringIndex(rest)
	if loc == nil {
		d.addErrorf("Error parsing YAML front matter: unterminated front-matter block.")
		return body
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(rest[:loc[0]]), &meta); err != nil {
		d.addErrorf("Error parsing YAML front matter: %v", err)
		return body
	}
	d.FrontMatter = meta

	remainder := rest[loc[1]:]
	return strings.TrimPrefix(remainder, "\n")
}

// parseBody walks the block-level nodes: one session-config section before
// the first level-2 heading, then one Message per "## speaker" heading.
func (d *ParsedDocument) parseBody(body string, opts Options) {
	blocks := scanBlocks(strings.Split(body, "\n"))

	configParsed := false
	i := 0
	for i < len(blocks) {
		b := blocks[i]

		if !configParsed && b.kind == blockFence && strings.Contains(b.info, opts.configLang()) {
			i = d.parseConfigSection(blocks, i)
			configParsed = true
			continue
		}

		if b.kind == blockHeading && b.level == 2 {
			// Any level-2 heading ends config-section scanning for good.
			configParsed = true
			i = d.parseMessage(blocks, i, opts)
			continue
		}

		i++
	}
}

// parseConfigSection parses the session-config fence at blocks[i] plus an
// optional immediately following fence as the session setup code. Returns the
// index of the first unconsumed block.
func (d *ParsedDocument) parseConfigSection(blocks []block, i int) int {
	var cfg map[string]any
	if err := unmarshalJSON(blocks[i].code, &cfg); err != nil {
		d.addErrorf("Error parsing session-config JSON: %v", err)
	} else {
		d.Config.Config = cfg
	}

	next := skipBlank(blocks, i+1)
	if next < len(blocks) && blocks[next].kind == blockFence {
		d.Config.SetupCode = &CodeBlock{
			Language: blocks[next].info,
			Code:     strings.Trim(blocks[next].code, "\n"),
		}
		return next + 1
	}
	return i + 1
}

// parseMessage parses the message opened by the level-2 heading at blocks[i]:
// an optional metadata fence, then a block-quoted body. A missing body is a
// recorded error, not a fatal one. Returns the index of the first unconsumed
// block.
func (d *ParsedDocument) parseMessage(blocks []block, i int, opts Options) int {
	msg := Message{Speaker: blocks[i].text}

	next := skipBlank(blocks, i+1)
	if next < len(blocks) && blocks[next].kind == blockFence &&
		strings.Contains(blocks[next].info, opts.metadataLang()) {
		var meta map[string]any
		if err := unmarshalJSON(blocks[next].code, &meta); err != nil {
			d.addErrorf("Error parsing msg-metadata JSON for %q: %v", msg.Speaker, err)
		} else {
			msg.Metadata = meta
		}
		i = next
		next = skipBlank(blocks, i+1)
	}

	if next < len(blocks) && blocks[next].kind == blockQuote {
		msg.Content = blocks[next].raw
		i = next
	} else {
		found := "nothing"
		if next < len(blocks) {
			found = blocks[next].kind.String()
		}
		d.addErrorf("Expected block_quote for message content for speaker %q, found %s at line %d. Content may be missing.",
			msg.Speaker, found, blocks[i].line)
	}

	d.Messages = append(d.Messages, msg)
	return i + 1
}

func skipBlank(blocks []block, i int) int {
	for i < len(blocks) && blocks[i].kind == blockBlank {
		i++
	}
	return i
}

// splitLinesKeepEnds splits text into lines with their trailing newline kept,
// matching the slicing downstream consumers expect.
func splitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
