package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "house-inspect/internal/application"
	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/infrastructure/export"
	"house-inspect/internal/infrastructure/securestore"
	"house-inspect/internal/infrastructure/storage"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (s *fakeSender) documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d.File.(tgbotapi.FileBytes).Name)
		}
	}
	return out
}

func (s *fakeSender) lastKeyboard(t *testing.T) tgbotapi.InlineKeyboardMarkup {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if m, ok := s.sent[i].(tgbotapi.MessageConfig); ok && m.ReplyMarkup != nil {
			return m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		}
	}
	t.Fatal("no keyboard was sent")
	return tgbotapi.InlineKeyboardMarkup{}
}

type detectorFunc func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error)

func (f detectorFunc) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	return f(ctx, frame)
}

type noExtractor struct{}

func (noExtractor) ExtractFrames(ctx context.Context, videoPath string, interval time.Duration) ([]entity.Frame, error) {
	return nil, errors.New("video decoding is not available")
}

// reportWriteFailKV отказывает в записи отчётов, остальные ключи пишет в память
type reportWriteFailKV struct {
	*storage.MemoryKV
}

func (kv reportWriteFailKV) Set(ctx context.Context, key, value string) error {
	if strings.Contains(key, "report_") {
		return errors.New("disk full")
	}
	return kv.MemoryKV.Set(ctx, key, value)
}

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	return newTestBotWithKV(t, storage.NewMemoryKV())
}

func newTestBotWithKV(t *testing.T, kv port.KeyValueStore) (*Bot, *fakeSender) {
	t.Helper()
	enc, err := securestore.NewEncryptionService("bot-test")
	require.NoError(t, err)
	store := securestore.New(kv, enc, "", nil)
	reports := storage.NewSecureReportRepository(store)
	users := app.NewUserService(storage.NewMemoryUserRepository())

	detector := detectorFunc(func(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
		return []entity.Problem{{
			ID: entity.NewProblemID(frame.Timestamp, 0), Category: entity.CategoryMold, Description: "Плесень в углу",
			Severity: entity.SeverityHigh, Confidence: 0.8, Location: "внизу слева", EstimatedCost: 800,
		}}, nil
	})
	inspections := app.NewInspectionService(users, reports, store, noExtractor{}, app.NewAnalyzer(detector))
	reportSvc := app.NewReportService(reports, nil, export.Formatters(false)...)

	out := &fakeSender{}
	fetch := func(ctx context.Context, fileID string) ([]byte, error) {
		if fileID == "missing" {
			return nil, errors.New("file not found")
		}
		return []byte("media:" + fileID), nil
	}
	return newBot(out, fetch, users, inspections, reportSvc, nil), out
}

func command(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID * 10},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

func message(userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID * 10},
	}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID * 10}},
		Data:    data,
	}}
}

func TestBot_FullInspectionFlow(t *testing.T) {
	b, out := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/start"))
	kb := out.lastKeyboard(t)
	require.Len(t, kb.InlineKeyboard, len(entity.PropertyTypes))

	b.handleUpdate(ctx, callback(1, "pt:house"))
	require.Len(t, out.requests, 1)
	user, err := b.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StageCapture, user.Stage)
	require.Contains(t, out.texts()[len(out.texts())-1], "Частный дом")

	msg := message(1)
	msg.Text = "ул. Ленина, 5"
	b.handleMessage(ctx, msg)
	require.Contains(t, out.texts()[len(out.texts())-1], "ул. Ленина, 5")

	out.reset()
	photo := message(1)
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	b.handleMessage(ctx, photo)
	b.wg.Wait()

	texts := out.texts()
	require.Equal(t, msgAnalyzing, texts[0])
	require.Contains(t, texts, "🔍 Анализ кадров: 1/1")
	summary := texts[len(texts)-1]
	require.Contains(t, summary, "Адрес: ул. Ленина, 5")
	require.Contains(t, summary, "Оценка: 90/100")

	docs := out.documents()
	require.Len(t, docs, 2)
	require.True(t, strings.HasSuffix(docs[0], ".html"))
	require.True(t, strings.HasSuffix(docs[1], ".json"))

	user, err = b.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StageResults, user.Stage)
	require.Equal(t, "inspection-report-"+user.ReportID+".html", docs[0])

	// Отчёт доступен из списка
	b.handleMessage(ctx, command(1, "/reports"))
	kb = out.lastKeyboard(t)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Equal(t, "rep:"+user.ReportID, *kb.InlineKeyboard[0][0].CallbackData)

	out.reset()
	b.handleUpdate(ctx, callback(1, "rep:"+user.ReportID))
	require.Len(t, out.documents(), 2)

	b.handleMessage(ctx, command(1, "/restart"))
	user, err = b.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StageWelcome, user.Stage)
}

func TestBot_VideoFailureReturnsToCapture(t *testing.T) {
	b, out := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, callback(2, "pt:apartment"))

	video := message(2)
	video.Video = &tgbotapi.Video{FileID: "walkthrough"}
	b.handleMessage(ctx, video)
	b.wg.Wait()

	texts := out.texts()
	require.Equal(t, msgAnalysisError, texts[len(texts)-1])

	user, err := b.users.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StageCapture, user.Stage)
}

func TestBot_StorageFailureIsNotAnalysisError(t *testing.T) {
	b, out := newTestBotWithKV(t, reportWriteFailKV{storage.NewMemoryKV()})
	ctx := context.Background()

	b.handleUpdate(ctx, callback(6, "pt:house"))
	photo := message(6)
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "room"}}
	b.handleMessage(ctx, photo)
	b.wg.Wait()

	texts := out.texts()
	require.Equal(t, msgStorageError, texts[len(texts)-1])

	user, err := b.users.Get(ctx, 6, 60)
	require.NoError(t, err)
	require.Equal(t, entity.StageCapture, user.Stage)
}

func TestBot_SecondSubmissionReportsRunningAnalysis(t *testing.T) {
	b, out := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, callback(7, "pt:office"))
	_, err := b.users.Update(ctx, 7, 70, func(u *entity.User) error {
		return u.StartAnalysis(port.VideoBlobKey("pending"))
	})
	require.NoError(t, err)

	b.runAnalysis(ctx, 7, 70, []byte("photo"), true, 0)

	texts := out.texts()
	require.Equal(t, msgAnalysisRunning, texts[len(texts)-1])
}

func TestBot_DownloadFailure(t *testing.T) {
	b, out := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, callback(3, "pt:office"))
	video := message(3)
	video.Video = &tgbotapi.Video{FileID: "missing"}
	b.handleMessage(ctx, video)
	b.wg.Wait()

	texts := out.texts()
	require.Equal(t, msgDownloadError, texts[len(texts)-1])
}

func TestBot_StageReplies(t *testing.T) {
	b, out := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(4))
	require.Equal(t, msgStart, out.texts()[0])

	b.handleUpdate(ctx, callback(4, "pt:villa"))
	b.handleUpdate(ctx, callback(4, "pt:villa"))
	texts := out.texts()
	require.Equal(t, msgAlreadyStarted, texts[len(texts)-1])

	b.handleMessage(ctx, message(4))
	texts = out.texts()
	require.Equal(t, msgUnsupportedMedia, texts[len(texts)-1])

	b.handleMessage(ctx, command(4, "/unknown"))
	texts = out.texts()
	require.Equal(t, msgUnknownCommand, texts[len(texts)-1])

	b.handleMessage(ctx, command(4, "/help"))
	texts = out.texts()
	require.Equal(t, msgHelp, texts[len(texts)-1])
}

func TestBot_EmptyReportList(t *testing.T) {
	b, out := newTestBot(t)

	b.handleMessage(context.Background(), command(5, "/reports"))
	require.Equal(t, []string{msgNoReports}, out.texts())
}
