// Package ocr распознаёт текст на скриншотах через внешний tesseract.
// Бинарник вызывается на каждый снимок отдельно; пустой или мусорный
// вывод — не ошибка, просто на снимке не нашлось текста.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	log "github.com/sirupsen/logrus"
)

// charWhitelist сужает алфавит распознавания до символов,
// встречающихся в никнеймах и подписях. Меньше алфавит — меньше мусора.
const charWhitelist = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@_.:абвгдеёжзийклмнопрстуфхцчшщъыьэюяАБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ "

// Tesseract — распознаватель на базе внешнего бинарника tesseract.
type Tesseract struct {
	binary string
	lang   string
}

// New создаёт распознаватель. binary — путь к tesseract, lang — языки
// в формате tesseract ("eng+rus").
func New(binary, lang string) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "eng+rus"
	}
	return &Tesseract{binary: binary, lang: lang}
}

// Recognize возвращает текст со скриншота. Временные сбои бинарника
// (занят, сигнал) ретраятся; стабильная ошибка возвращается как есть.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	var out string
	err := retry.Do(
		func() error {
			var err error
			out, err = t.runOnce(ctx, image)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.MaxJitter(100*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("attempt", n+1).Warn("Повтор распознавания")
		}),
	)
	if err != nil {
		return "", fmt.Errorf("распознавание не удалось: %w", err)
	}
	return out, nil
}

func (t *Tesseract) runOnce(ctx context.Context, image []byte) (string, error) {
	// stdin → stdout, без временных файлов
	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout",
		"-l", t.lang,
		"--psm", "6",
		"-c", "tessedit_char_whitelist="+charWhitelist,
	)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
