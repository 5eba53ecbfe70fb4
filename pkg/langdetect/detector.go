// Package langdetect classifies review text by language.
package langdetect

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetectable is returned when no language can be assigned to a text
var ErrUndetectable = errors.New("language undetectable")

// Detector wraps whatlanggo trigram detection
type Detector struct {
	// MinConfidence rejects detections below this score; zero accepts any
	MinConfidence float64

	detect func(string) whatlanggo.Info
}

// New creates a detector
func New(minConfidence float64) *Detector {
	return &Detector{
		MinConfidence: minConfidence,
		detect:        whatlanggo.Detect,
	}
}

// Detect returns the ISO 639-1 code of text's language
func (d *Detector) Detect(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUndetectable
	}

	detect := d.detect
	if detect == nil {
		detect = whatlanggo.Detect
	}

	info := detect(text)
	if info.Script == nil || info.Lang < 0 {
		return "", ErrUndetectable
	}
	if d.MinConfidence > 0 && info.Confidence < d.MinConfidence {
		return "", ErrUndetectable
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetectable
	}
	return code, nil
}
