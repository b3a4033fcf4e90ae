package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "house-inspect/internal/application"
	"house-inspect/internal/container"
	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/export"
	"house-inspect/internal/infrastructure/securestore"
	"house-inspect/internal/logger"
)

const (
	msgStart = `👋 Привет! Я помогу осмотреть помещение по видео.

🏠 Выберите тип объекта, затем отправьте видео обхода.
Я найду проблемы, оценю состояние и пришлю отчёт.`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите тип объекта
2️⃣ При желании отправьте адрес текстом
3️⃣ Отправьте видео обхода (или фото)
4️⃣ Получите оценку и отчёт в HTML и JSON

💡 Рекомендации:
• Снимайте при хорошем освещении
• Двигайтесь медленно и плавно
• Показывайте углы, потолок и пол

📋 Команды:
/start - новый осмотр
/restart - начать заново
/reports - сохранённые отчёты
/help - справка`

	msgCapture          = "🎥 Тип объекта: %s.\n\nОтправьте видео обхода помещения. Можно также отправить адрес текстом."
	msgAddressSaved     = "📍 Адрес сохранён: %s\n\nТеперь отправьте видео."
	msgChooseFirst      = "🏠 Сначала выберите тип объекта."
	msgAnalysisRunning  = "⏳ Анализ ещё идёт, подождите."
	msgAlreadyStarted   = "ℹ️ Осмотр уже начат. Отправьте /restart, чтобы выбрать другой объект."
	msgResultsReady     = "✅ Осмотр завершён. Отправьте /restart для нового осмотра."
	msgAnalyzing        = "⏳ Извлекаю кадры..."
	msgProgress         = "🔍 Анализ кадров: %d/%d"
	msgRestarted        = "🔄 Осмотр сброшен."
	msgNoReports        = "📂 Сохранённых отчётов пока нет."
	msgReportsHeader    = "📂 Сохранённые отчёты:"
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgDownloadError    = "⚠️ Не удалось скачать файл. Попробуйте отправить его ещё раз."
	msgAnalysisError    = "⚠️ Не удалось проанализировать видео. Попробуйте записать его ещё раз."
	msgStorageError     = "⚠️ Не удалось сохранить данные. Попробуйте позже."
	msgReportNotFound   = "⚠️ Отчёт не найден."
	msgUnsupportedMedia = "📎 Отправьте видео или фото."
)

const (
	callbackPropertyType = "pt"
	callbackReport       = "rep"
)

// sender часть BotAPI, через которую бот отвечает пользователю
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// fetchFunc скачивает файл Telegram по FileID
type fetchFunc func(ctx context.Context, fileID string) ([]byte, error)

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	out         sender
	fetch       fetchFunc
	users       *app.UserService
	inspections *app.InspectionService
	reports     *app.ReportService
	log         *logger.Logger

	wg sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, nil, c.UserService, c.InspectionService, c.ReportService, c.Logger)
	b.api = api
	b.fetch = b.downloadFile
	b.log.Info("authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(out sender, fetch fetchFunc, users *app.UserService, inspections *app.InspectionService, reports *app.ReportService, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		out:         out,
		fetch:       fetch,
		users:       users,
		inspections: inspections,
		reports:     reports,
		log:         log.WithComponent("telegram"),
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx = logger.WithUserID(ctx, msg.From.ID)

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.LogError(ctx, err, "failed to get user")
		return
	}

	switch user.Stage {
	case entity.StageWelcome:
		b.sendWelcome(msg.Chat.ID)
	case entity.StageAnalyze:
		b.sendMessage(msg.Chat.ID, msgAnalysisRunning)
	case entity.StageResults:
		b.sendMessage(msg.Chat.ID, msgResultsReady)
	case entity.StageCapture:
		b.handleCapture(ctx, msg)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "restart", "cancel":
		if _, err := b.inspections.Restart(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			b.log.LogError(ctx, err, "failed to restart inspection")
		}
		if msg.Command() != "start" {
			b.sendMessage(msg.Chat.ID, msgRestarted)
		}
		b.sendWelcome(msg.Chat.ID)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "reports":
		b.sendReportList(ctx, msg.Chat.ID)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	ctx = logger.WithUserID(ctx, q.From.ID)
	chatID := q.Message.Chat.ID

	if _, err := b.out.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.LogError(ctx, err, "failed to answer callback")
	}

	kind, value := parseCallback(q.Data)
	switch kind {
	case callbackPropertyType:
		pt := entity.PropertyType(value)
		if _, err := b.inspections.Begin(ctx, q.From.ID, chatID, pt, ""); err != nil {
			b.log.LogError(ctx, err, "failed to begin inspection")
			if errors.Is(err, entity.ErrInvalidTransition) {
				b.sendMessage(chatID, msgAlreadyStarted)
			}
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgCapture, pt.Label()))

	case callbackReport:
		report, err := b.reports.Get(ctx, value)
		if err != nil {
			b.log.LogError(ctx, err, "failed to load report", "report_id", value)
			b.sendMessage(chatID, msgReportNotFound)
			return
		}
		b.sendResults(ctx, chatID, report)
	}
}

// handleCapture принимает адрес текстом или медиа для анализа
func (b *Bot) handleCapture(ctx context.Context, msg *tgbotapi.Message) {
	fileID, isPhoto := mediaFileID(msg)
	if fileID == "" {
		if text := strings.TrimSpace(msg.Text); text != "" {
			if err := b.inspections.SetAddress(msg.From.ID, text); err != nil {
				b.sendMessage(msg.Chat.ID, msgChooseFirst)
				return
			}
			b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgAddressSaved, text))
			return
		}
		b.sendMessage(msg.Chat.ID, msgUnsupportedMedia)
		return
	}

	data, err := b.fetch(ctx, fileID)
	if err != nil {
		b.log.LogError(ctx, err, "failed to download media")
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	progress, err := b.out.Send(tgbotapi.NewMessage(msg.Chat.ID, msgAnalyzing))
	if err != nil {
		b.log.LogError(ctx, err, "failed to send progress message")
	}

	// Анализ идёт в фоне, чтобы /restart мог его прервать
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runAnalysis(context.WithoutCancel(ctx), msg.From.ID, msg.Chat.ID, data, isPhoto, progress.MessageID)
	}()
}

func (b *Bot) runAnalysis(ctx context.Context, userID, chatID int64, data []byte, isPhoto bool, progressID int) {
	tracker := newProgressTracker()
	onProgress := func(processed, total int) {
		if progressID == 0 || !tracker.shouldUpdate(processed, total) {
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, progressID, fmt.Sprintf(msgProgress, processed, total))
		if _, err := b.out.Send(edit); err != nil {
			b.log.LogError(ctx, err, "failed to update progress")
		}
	}

	var (
		report *entity.Report
		err    error
	)
	if isPhoto {
		report, err = b.inspections.SubmitPhoto(ctx, userID, chatID, data, onProgress)
	} else {
		report, err = b.inspections.SubmitVideo(ctx, userID, chatID, data, onProgress)
	}
	if err != nil {
		b.log.LogError(ctx, err, "inspection failed")
		switch {
		case errors.Is(err, context.Canceled):
			// Пользователь начал заново, отвечать не нужно
		case errors.Is(err, entity.ErrInvalidTransition):
			b.sendMessage(chatID, msgAnalysisRunning)
		case errors.Is(err, securestore.ErrStorageFailed):
			b.sendMessage(chatID, msgStorageError)
		case errors.Is(err, app.ErrAnalysisFailed):
			b.sendMessage(chatID, msgAnalysisError)
		default:
			b.sendMessage(chatID, msgStorageError)
		}
		return
	}

	b.sendResults(ctx, chatID, report)
}

// sendResults отправляет сводку и файлы отчёта
func (b *Bot) sendResults(ctx context.Context, chatID int64, report *entity.Report) {
	summary, err := export.NewTextFormatter(false).Format(report)
	if err == nil {
		b.sendMessage(chatID, truncate(string(summary), 4000))
	}

	for _, format := range []string{"html", "json"} {
		file, err := b.reports.Export(ctx, report.ID, format)
		if err != nil {
			b.log.LogError(ctx, err, "failed to export report", "format", format)
			continue
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: file.Filename, Bytes: file.Content})
		if _, err := b.out.Send(doc); err != nil {
			b.log.LogError(ctx, err, "failed to send document", "format", format)
		}
	}
}

func (b *Bot) sendReportList(ctx context.Context, chatID int64) {
	reports, err := b.reports.List(ctx)
	if err != nil {
		b.log.LogError(ctx, err, "failed to list reports")
		b.sendMessage(chatID, msgStorageError)
		return
	}
	if len(reports) == 0 {
		b.sendMessage(chatID, msgNoReports)
		return
	}

	msg := tgbotapi.NewMessage(chatID, msgReportsHeader)
	msg.ReplyMarkup = reportsKeyboard(reports, 10)
	if _, err := b.out.Send(msg); err != nil {
		b.log.LogError(ctx, err, "failed to send report list")
	}
}

func (b *Bot) sendWelcome(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgStart)
	msg.ReplyMarkup = propertyTypeKeyboard()
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("failed to send message", "error", err)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("failed to send message", "error", err)
	}
}
