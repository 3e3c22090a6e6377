package detect

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// Building the lingua models is the expensive part, so all tests share
// one detector instance.
var (
	detectorOnce   sync.Once
	sharedDetector *Detector
)

func testDetector() *Detector {
	detectorOnce.Do(func() {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		sharedDetector = NewDetector(logger)
	})
	return sharedDetector
}

func TestDetectEnglish(t *testing.T) {
	got := testDetector().Detect("What is the best fertilizer for growing tomatoes in sandy soil?")
	assert.Equal(t, "en", got)
}

func TestDetectSpanish(t *testing.T) {
	got := testDetector().Detect("¿Cuál es el mejor fertilizante para cultivar tomates en suelo arenoso?")
	assert.Equal(t, "es", got)
}

func TestDetectFrench(t *testing.T) {
	got := testDetector().Detect("Quel est le meilleur engrais pour cultiver des tomates dans un sol sablonneux ?")
	assert.Equal(t, "fr", got)
}

func TestDetectHindi(t *testing.T) {
	got := testDetector().Detect("रेतीली मिट्टी में टमाटर उगाने के लिए सबसे अच्छा उर्वरक कौन सा है?")
	assert.Equal(t, "hi", got)
}

func TestDetectShortTextFallsBack(t *testing.T) {
	assert.Equal(t, FallbackLanguage, testDetector().Detect("ok"))
}

func TestDetectEmptyTextFallsBack(t *testing.T) {
	assert.Equal(t, FallbackLanguage, testDetector().Detect("   "))
}

func TestDetectNumericTextFallsBack(t *testing.T) {
	assert.Equal(t, FallbackLanguage, testDetector().Detect("12345 67890 12345"))
}

func TestDetectEmojiOnlyTextFallsBack(t *testing.T) {
	assert.Equal(t, FallbackLanguage, testDetector().Detect("🌽🚜🌾🍅🐄"))
}

func TestDetectLongTextIsTruncatedNotRejected(t *testing.T) {
	long := strings.Repeat("The farmer inspects the wheat field every morning. ", 50)
	assert.Equal(t, "en", testDetector().Detect(long))
}
