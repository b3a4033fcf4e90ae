package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"house-inspect/internal/domain/entity"
)

// propertyTypeKeyboard выбор типа объекта, по кнопке в строке
func propertyTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entity.PropertyTypes))
	for _, pt := range entity.PropertyTypes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(pt.Label(), callbackData(callbackPropertyType, string(pt))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// reportsKeyboard кнопки последних limit отчётов
func reportsKeyboard(reports []*entity.Report, limit int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, min(len(reports), limit))
	for i, r := range reports {
		if i == limit {
			break
		}
		label := fmt.Sprintf("%s · %s · %d/100",
			r.CreatedAt.Local().Format("02.01 15:04"), r.PropertyType.Label(), r.Summary.OverallScore)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(callbackReport, r.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func callbackData(kind, value string) string {
	return kind + ":" + value
}

// parseCallback разбирает данные кнопки вида kind:value
func parseCallback(data string) (kind, value string) {
	kind, value, ok := strings.Cut(data, ":")
	if !ok {
		return "", ""
	}
	return kind, value
}

// mediaFileID возвращает FileID видео или фото из сообщения
func mediaFileID(msg *tgbotapi.Message) (fileID string, isPhoto bool) {
	switch {
	case msg.Video != nil:
		return msg.Video.FileID, false
	case msg.VideoNote != nil:
		return msg.VideoNote.FileID, false
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/"):
		return msg.Document.FileID, false
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		return msg.Document.FileID, true
	case len(msg.Photo) > 0:
		// Последний размер самый крупный
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	return "", false
}

// progressTracker ограничивает частоту правок сообщения о прогрессе
type progressTracker struct {
	lastPercent int
}

func newProgressTracker() *progressTracker {
	return &progressTracker{lastPercent: -1}
}

func (t *progressTracker) shouldUpdate(processed, total int) bool {
	if total <= 0 {
		return false
	}
	percent := processed * 100 / total
	if processed != total && t.lastPercent >= 0 && percent-t.lastPercent < 10 {
		return false
	}
	t.lastPercent = percent
	return true
}

// truncate обрезает текст до limit символов
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
