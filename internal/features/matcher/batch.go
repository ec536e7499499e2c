// Package matcher — batch.go обрабатывает пачку скриншотов параллельно.
// Каждый скриншот независим: общего изменяемого состояния нет,
// поэтому пул воркеров безопасен, а слияние результатов — это
// объединение множеств, не зависящее от порядка завершения.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Recognizer — контракт внешнего распознавателя текста.
// Реализация может вернуть пустую строку или мусор — это не ошибка,
// Matcher обязан такое переживать.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// commentMarkers — слова, по которым скриншот классифицируется как
// скриншот комментариев, а не лайков.
var commentMarkers = []string{"комментарий", "comment", "ответил", "ответила"}

// ImageResult — результат обработки одного скриншота.
type ImageResult struct {
	Usernames  []string // найденные участники ростера
	IsComments bool     // скриншот комментариев, а не лайков
	TextSample string   // первые символы распознанного текста (для логов)
}

// ImageError — ошибка обработки одного скриншота из пачки.
type ImageError struct {
	Index int // позиция скриншота в пачке
	Err   error
}

func (e ImageError) Error() string {
	return fmt.Sprintf("скриншот %d: %v", e.Index, e.Err)
}

// BatchResult — итог обработки пачки. Errors отделяет «не смогли
// обработать» от «обработали, но никого не нашли»: пустые списки
// при пустом Errors означают именно отсутствие совпадений.
type BatchResult struct {
	Likes    []string
	Comments []string
	Errors   []ImageError
}

// Processor обрабатывает скриншоты: распознавание, классификация,
// сопоставление с ростером.
type Processor struct {
	matcher       *Matcher
	recognizer    Recognizer
	workers       int
	timeout       time.Duration
	minConfidence float64
}

// NewProcessor создаёт процессор пачек.
// workers ограничивает параллелизм, timeout — время на один скриншот.
func NewProcessor(m *Matcher, rec Recognizer, workers int, timeout time.Duration, minConfidence float64) *Processor {
	if workers <= 0 {
		workers = 4
	}
	return &Processor{
		matcher:       m,
		recognizer:    rec,
		workers:       workers,
		timeout:       timeout,
		minConfidence: minConfidence,
	}
}

// ProcessImage обрабатывает один скриншот: распознаёт текст,
// классифицирует его и ищет участников ростера.
func (p *Processor) ProcessImage(ctx context.Context, image []byte, roster []string) (*ImageResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	text, err := p.recognizer.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("распознавание: %w", err)
	}

	matches, err := p.matcher.Match(text, roster, p.minConfidence)
	if err != nil {
		return nil, fmt.Errorf("сопоставление: %w", err)
	}

	sample := text
	if len(sample) > 100 {
		sample = sample[:100]
	}

	return &ImageResult{
		Usernames:  Usernames(matches),
		IsComments: isCommentsScreenshot(text),
		TextSample: sample,
	}, nil
}

// ProcessImages обрабатывает пачку скриншотов пулом воркеров.
// Упавший или не уложившийся в таймаут скриншот попадает в Errors
// и не мешает остальным: частичный успех — это нормальный исход.
func (p *Processor) ProcessImages(ctx context.Context, images [][]byte, roster []string) *BatchResult {
	result := &BatchResult{}

	likes := make(map[string]struct{})
	comments := make(map[string]struct{})
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, image := range images {
		g.Go(func() error {
			res, err := p.ProcessImage(gctx, image, roster)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("image", i).Warn("Скриншот не обработан")
				result.Errors = append(result.Errors, ImageError{Index: i, Err: err})
				return nil // не роняем остальные
			}
			target := likes
			if res.IsComments {
				target = comments
			}
			for _, u := range res.Usernames {
				target[u] = struct{}{}
			}
			return nil
		})
	}
	// Ошибки не возвращаются из горутин, Wait здесь только барьер
	_ = g.Wait()

	result.Likes = sortedKeys(likes)
	result.Comments = sortedKeys(comments)
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })
	return result
}

func isCommentsScreenshot(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range commentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
