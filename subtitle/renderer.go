package subtitle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TableExt is the file extension of timing tables.
const TableExt = ".yaml"

// BottomMargin is the gap in pixels between the last text line and the
// bottom edge of the frame.
const BottomMargin = 8

// Renderer draws the subtitles of the loaded stream. It implements
// video.SubtitleRenderer.
type Renderer struct {
	mu     sync.Mutex
	dir    string
	face   *basicfont.Face
	table  *Table
	stream string
}

// NewRenderer creates a renderer reading timing tables from dir. An empty dir
// disables subtitles.
func NewRenderer(dir string) *Renderer {
	return &Renderer{
		dir:  dir,
		face: basicfont.Face7x13,
	}
}

// TablePath returns where the timing table for streamID is expected: the
// stream's base name with its extension replaced by TableExt.
func (r *Renderer) TablePath(streamID string) string {
	base := filepath.Base(streamID)
	return filepath.Join(r.dir, strings.TrimSuffix(base, filepath.Ext(base))+TableExt)
}

// Load replaces the active table with the one for streamID. A stream without
// a table plays without subtitles and is not an error.
func (r *Renderer) Load(streamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table = nil
	r.stream = streamID
	if r.dir == "" {
		return nil
	}

	path := r.TablePath(streamID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.WithFields(logrus.Fields{
				"function": "Renderer.Load",
				"stream":   streamID,
				"path":     path,
			}).Debug("No subtitle table for stream")
			return nil
		}
		return fmt.Errorf("open subtitle table %s: %w", path, err)
	}
	defer f.Close()

	table, err := ParseTable(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	r.table = table

	logrus.WithFields(logrus.Fields{
		"function": "Renderer.Load",
		"stream":   streamID,
		"lines":    len(table.Lines),
	}).Info("Subtitle table loaded")
	return nil
}

// SetTable installs table directly, bypassing the file lookup.
func (r *Renderer) SetTable(table *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = table
}

// Render draws the lines active at frameIndex centered at the bottom of dst
// using palette index key. Nothing is drawn when key is video.NoColorKey.
func (r *Renderer) Render(dst *video.Frame, frameIndex int, key video.ColorKey) {
	if key == video.NoColorKey {
		return
	}

	r.mu.Lock()
	texts := r.table.Lookup(frameIndex)
	r.mu.Unlock()
	if len(texts) == 0 {
		return
	}

	var lines []string
	for _, t := range texts {
		lines = append(lines, strings.Split(t, "\n")...)
	}

	// The last line's descent sits BottomMargin pixels above the edge.
	baseline := dst.Height - BottomMargin - r.face.Descent - (len(lines)-1)*r.face.Height
	for _, line := range lines {
		r.drawLine(dst, line, baseline, byte(key))
		baseline += r.face.Height
	}
}

func (r *Renderer) drawLine(dst *video.Frame, text string, baseline int, index byte) {
	width := len([]rune(text)) * r.face.Advance
	x := (dst.Width - width) / 2
	if x < 0 {
		x = 0
	}

	dot := fixed.P(x, baseline)
	for _, ch := range text {
		dr, mask, maskp, advance, ok := r.face.Glyph(dot, ch)
		if !ok {
			dr, mask, maskp, advance, _ = r.face.Glyph(dot, '?')
		}
		for py := dr.Min.Y; py < dr.Max.Y; py++ {
			if py < 0 || py >= dst.Height {
				continue
			}
			for px := dr.Min.X; px < dr.Max.X; px++ {
				if px < 0 || px >= dst.Width {
					continue
				}
				_, _, _, a := mask.At(maskp.X+px-dr.Min.X, maskp.Y+py-dr.Min.Y).RGBA()
				if a >= 0x8000 {
					dst.Pixels[py*dst.Pitch+px] = index
				}
			}
		}
		dot.X += advance
	}
}
