// Package parser extracts structured content from README markdown:
// sections, fenced code blocks, and badge references. It performs no
// detection itself; analyzers consume the extracted content.
package parser

import (
	"regexp"
	"strings"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var readmeLog = logger.New("parser:readme")

// HeadingPattern matches ATX headings (# through ######)
var HeadingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// FencePattern matches the opening of a fenced code block with an optional language tag
var FencePattern = regexp.MustCompile("^```\\s*([A-Za-z0-9_+-]*)\\s*$")

// BadgePattern matches markdown image badges, capturing the image URL
var BadgePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

// Section is one heading-delimited region of the README.
type Section struct {
	Heading string
	Level   int
	Body    string
}

// CodeBlock is one fenced code block with its declared language.
type CodeBlock struct {
	Language string
	Content  string
}

// ReadmeContent is the structured view of a README document.
type ReadmeContent struct {
	Title      string
	Raw        string
	Sections   []Section
	CodeBlocks []CodeBlock
	Badges     []string
}

// Parse tokenizes README markdown into sections, code blocks, and badges.
// Empty input yields an empty (non-nil) content value; malformed markdown
// degrades to fewer extracted structures rather than an error.
func Parse(content string) *ReadmeContent {
	readmeLog.Printf("Parsing README content: %d bytes", len(content))

	result := &ReadmeContent{Raw: content}
	lines := strings.Split(content, "\n")

	var currentSection *Section
	var currentBody strings.Builder
	var fenceLang string
	var fenceBody strings.Builder
	inFence := false

	flushSection := func() {
		if currentSection != nil {
			currentSection.Body = strings.TrimSpace(currentBody.String())
			result.Sections = append(result.Sections, *currentSection)
		}
		currentBody.Reset()
	}

	for _, line := range lines {
		if inFence {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				result.CodeBlocks = append(result.CodeBlocks, CodeBlock{
					Language: fenceLang,
					Content:  strings.TrimRight(fenceBody.String(), "\n"),
				})
				fenceBody.Reset()
				inFence = false
				continue
			}
			fenceBody.WriteString(line + "\n")
			currentBody.WriteString(line + "\n")
			continue
		}

		if m := FencePattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			inFence = true
			fenceLang = strings.ToLower(m[1])
			continue
		}

		if m := HeadingPattern.FindStringSubmatch(line); m != nil {
			flushSection()
			level := len(m[1])
			heading := strings.TrimSpace(m[2])
			if result.Title == "" && level == 1 {
				result.Title = heading
			}
			currentSection = &Section{Heading: heading, Level: level}
			continue
		}

		for _, badge := range BadgePattern.FindAllStringSubmatch(line, -1) {
			result.Badges = append(result.Badges, badge[1])
		}
		currentBody.WriteString(line + "\n")
	}

	// An unterminated fence still contributes its partial content
	if inFence {
		result.CodeBlocks = append(result.CodeBlocks, CodeBlock{
			Language: fenceLang,
			Content:  strings.TrimRight(fenceBody.String(), "\n"),
		})
	}
	flushSection()

	readmeLog.Printf("Parsed README: title=%q, sections=%d, code_blocks=%d, badges=%d",
		result.Title, len(result.Sections), len(result.CodeBlocks), len(result.Badges))
	return result
}

// SectionsMatching returns sections whose heading contains any of the given
// keywords, case-insensitively.
func (c *ReadmeContent) SectionsMatching(keywords ...string) []Section {
	var matched []Section
	for _, section := range c.Sections {
		heading := strings.ToLower(section.Heading)
		for _, keyword := range keywords {
			if strings.Contains(heading, strings.ToLower(keyword)) {
				matched = append(matched, section)
				break
			}
		}
	}
	return matched
}

// CodeBlocksForLanguages returns code blocks whose language tag is one of
// the given languages.
func (c *ReadmeContent) CodeBlocksForLanguages(languages ...string) []CodeBlock {
	var matched []CodeBlock
	for _, block := range c.CodeBlocks {
		for _, lang := range languages {
			if block.Language == lang {
				matched = append(matched, block)
				break
			}
		}
	}
	return matched
}
