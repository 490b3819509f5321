package dialog

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrMalformedLine reports a line with fewer than four pipe-delimited fields.
	ErrMalformedLine = errors.New("malformed line: want path|text|shortText|imageRef")
	// ErrMissingParent reports a node whose parent path has not been attached yet.
	ErrMissingParent = errors.New("parent path not present in tree")
)

// ParseError aborts a whole reload; a partially built tree is never exposed.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tree source line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ImageHook prepares an image reference for sending (resize/compress) and
// returns the path to store on the node.
type ImageHook func(path string) (string, error)

// Parser builds dialog trees from the line-oriented source format:
// one record per line, `path|text|shortText|imageRef`, blank lines ignored.
// A literal pipe inside text breaks the record apart; the format carries no
// escape for it.
type Parser struct {
	imageDir string
	hook     ImageHook
}

// NewParser creates a parser. imageDir is where image references resolve;
// hook may be nil to store resolved paths untouched.
func NewParser(imageDir string, hook ImageHook) *Parser {
	return &Parser{imageDir: imageDir, hook: hook}
}

// ParseFile parses the tree source at path.
func (p *Parser) ParseFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads the whole source and returns a fully built generation: root
// node plus token maps for every non-root path. The first data line becomes
// the root; its path field is ignored. Every other line must name a path
// whose parent line already appeared, so sources list parents before
// children. Any error aborts the parse.
func (p *Parser) Parse(r io.Reader) (*Tree, error) {
	tree := &Tree{
		tokenToPath: make(map[string]string),
		pathToToken: make(map[string]string),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			return nil, &ParseError{Line: lineNo, Err: ErrMalformedLine}
		}

		node := &Node{
			Text:      renderText(parts[1]),
			ShortText: strings.TrimSpace(parts[2]),
		}
		if ref := strings.TrimSpace(parts[3]); ref != "" {
			image, err := p.prepareImage(ref)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			node.Image = image
		}

		if tree.root == nil {
			tree.root = node
			continue
		}

		path := strings.TrimSpace(parts[0])
		if err := attach(tree.root, path, node); err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		token := hashPath(path)
		tree.tokenToPath[token] = path
		tree.pathToToken[path] = token
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if tree.root == nil {
		return nil, &ParseError{Line: lineNo, Err: errors.New("empty tree source")}
	}
	return tree, nil
}

func (p *Parser) prepareImage(ref string) (string, error) {
	path := filepath.Join(p.imageDir, ref+".jpg")
	if p.hook == nil {
		return path, nil
	}
	return p.hook(path)
}

// attach walks from root through every parent prefix of path and adds the
// node under its final dotted path.
func attach(root *Node, path string, node *Node) error {
	segments := strings.Split(path, ".")
	cur := root
	for i := 0; i < len(segments)-1; i++ {
		next, ok := cur.Child(strings.Join(segments[:i+1], "."))
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingParent, strings.Join(segments[:i+1], "."))
		}
		cur = next
	}
	cur.AddChild(path, node)
	return nil
}

var urlUnderscore = regexp.MustCompile(`(https?://\S+)_`)

var markupEscaper = strings.NewReplacer(
	".", `\.`,
	"!", `\!`,
	"#", `\#`,
	"+", `\+`,
	"=", `\=`,
	"-", `\-`,
	"(", `\(`,
	")", `\)`,
)

// renderText prepares body text for MarkdownV2 rendering. Escaping runs
// before the URL-underscore fix; the reverse order would double-escape the
// underscore's backslash.
func renderText(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = markupEscaper.Replace(text)
	return urlUnderscore.ReplaceAllString(text, `$1\_`)
}

func hashPath(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
