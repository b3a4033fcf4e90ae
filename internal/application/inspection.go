package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/logger"
)

var (
	// ErrNoActiveReport у пользователя нет начатого осмотра
	ErrNoActiveReport = errors.New("no active inspection")
	// ErrAnalysisFailed анализ видео не завершился; осмотр возвращён к записи
	ErrAnalysisFailed = errors.New("analysis failed")
)

// DefaultFrameInterval шаг между извлекаемыми кадрами
const DefaultFrameInterval = 500 * time.Millisecond

type InspectionService struct {
	users     *UserService
	reports   port.ReportRepository
	blobs     port.BlobStore
	extractor port.FrameExtractor
	analyzer  *Analyzer
	interval  time.Duration
	log       *logger.Logger

	newID func() string
	now   func() time.Time

	mu      sync.Mutex
	drafts  map[int64]*entity.Report
	running map[int64]context.CancelFunc
}

type InspectionOption func(*InspectionService)

// WithFrameInterval задаёт шаг извлечения кадров
func WithFrameInterval(d time.Duration) InspectionOption {
	return func(s *InspectionService) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithInspectionLogger(l *logger.Logger) InspectionOption {
	return func(s *InspectionService) { s.log = l }
}

// NewInspectionService создаёт сервис, который ведёт пользователя от выбора объекта до отчёта.
func NewInspectionService(
	users *UserService,
	reports port.ReportRepository,
	blobs port.BlobStore,
	extractor port.FrameExtractor,
	analyzer *Analyzer,
	opts ...InspectionOption,
) *InspectionService {
	s := &InspectionService{
		users:     users,
		reports:   reports,
		blobs:     blobs,
		extractor: extractor,
		analyzer:  analyzer,
		interval:  DefaultFrameInterval,
		log:       logger.Nop(),
		newID:     uuid.NewString,
		now:       time.Now,
		drafts:    make(map[int64]*entity.Report),
		running:   make(map[int64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("inspection")
	return s
}

// Begin создаёт черновик отчёта для выбранного типа объекта и переводит к записи видео.
func (s *InspectionService) Begin(ctx context.Context, userID, chatID int64, propertyType entity.PropertyType, address string) (*entity.User, error) {
	report := entity.NewReport(s.newID(), s.now().UTC(), propertyType, address)

	user, err := s.users.Update(ctx, userID, chatID, func(u *entity.User) error {
		return u.StartCapture(propertyType, report.ID)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.drafts[userID] = report
	s.mu.Unlock()

	s.log.WithContext(logger.WithReportID(logger.WithUserID(ctx, userID), report.ID)).
		Info("inspection started", "property_type", propertyType)
	return user, nil
}

// SubmitVideo сохраняет видео, извлекает кадры и строит отчёт текущего осмотра.
func (s *InspectionService) SubmitVideo(ctx context.Context, userID, chatID int64, video []byte, onProgress ProgressFunc) (*entity.Report, error) {
	return s.submit(ctx, userID, chatID, video, func(ctx context.Context) ([]entity.Frame, error) {
		return s.extractFromBytes(ctx, video)
	}, onProgress)
}

// SubmitPhoto анализирует одно фото как видео из одного кадра.
func (s *InspectionService) SubmitPhoto(ctx context.Context, userID, chatID int64, photo []byte, onProgress ProgressFunc) (*entity.Report, error) {
	return s.submit(ctx, userID, chatID, photo, func(ctx context.Context) ([]entity.Frame, error) {
		return []entity.Frame{{Image: photo}}, nil
	}, onProgress)
}

func (s *InspectionService) submit(
	ctx context.Context,
	userID, chatID int64,
	data []byte,
	frames func(ctx context.Context) ([]entity.Frame, error),
	onProgress ProgressFunc,
) (*entity.Report, error) {
	draft, ok := s.Current(userID)
	if !ok {
		return nil, ErrNoActiveReport
	}
	ctx = logger.WithReportID(logger.WithUserID(ctx, userID), draft.ID)
	log := s.log.WithContext(ctx)

	// Переход в analyze атомарен, поэтому видео пишет только выигравшая отправка
	key := port.VideoBlobKey(draft.ID)
	if _, err := s.users.Update(ctx, userID, chatID, func(u *entity.User) error {
		return u.StartAnalysis(key)
	}); err != nil {
		return nil, err
	}
	if err := s.blobs.StoreBlob(ctx, key, data); err != nil {
		s.abort(ctx, userID, chatID)
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.running[userID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.running, userID)
		s.mu.Unlock()
	}()

	report, err := s.analyze(ctx, draft, frames, onProgress)
	if err != nil {
		s.abort(ctx, userID, chatID)
		s.discardVideo(ctx, draft.ID)
		log.Error("analysis failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	if _, err := s.users.Update(ctx, userID, chatID, func(u *entity.User) error {
		return u.FinishAnalysis()
	}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if current, ok := s.drafts[userID]; ok && current.ID == report.ID {
		s.drafts[userID] = report
	}
	s.mu.Unlock()

	log.Info("inspection completed",
		"problems", report.Summary.TotalProblems,
		"score", report.Summary.OverallScore)
	return cloneReport(report), nil
}

// analyze извлекает кадры, агрегирует находки и сохраняет отчёт
func (s *InspectionService) analyze(
	ctx context.Context,
	draft *entity.Report,
	frames func(ctx context.Context) ([]entity.Frame, error),
	onProgress ProgressFunc,
) (*entity.Report, error) {
	extracted, err := frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	problems, err := s.analyzer.Aggregate(ctx, extracted, onProgress)
	if err != nil {
		return nil, err
	}

	report := cloneReport(draft)
	report.SetProblems(problems)
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// abort возвращает осмотр к записи видео, если пользователь ещё ждёт анализ
func (s *InspectionService) abort(ctx context.Context, userID, chatID int64) {
	_, err := s.users.Update(context.WithoutCancel(ctx), userID, chatID, func(u *entity.User) error {
		if u.Stage != entity.StageAnalyze {
			return nil
		}
		return u.AbortAnalysis()
	})
	if err != nil {
		s.log.LogError(ctx, err, "failed to reset inspection")
	}
}

// AnalyzeVideo строит и сохраняет отчёт без пользовательского сценария (CLI и REST).
func (s *InspectionService) AnalyzeVideo(ctx context.Context, video []byte, propertyType entity.PropertyType, address string, onProgress ProgressFunc) (*entity.Report, error) {
	if !propertyType.IsValid() {
		return nil, fmt.Errorf("unknown property type %q", propertyType)
	}
	draft := entity.NewReport(s.newID(), s.now().UTC(), propertyType, address)
	ctx = logger.WithReportID(ctx, draft.ID)

	if err := s.blobs.StoreBlob(ctx, port.VideoBlobKey(draft.ID), video); err != nil {
		return nil, err
	}

	var report *entity.Report
	err := s.log.LogOperation(ctx, "analyze_video", func() error {
		var err error
		report, err = s.analyze(ctx, draft, func(ctx context.Context) ([]entity.Frame, error) {
			return s.extractFromBytes(ctx, video)
		}, onProgress)
		return err
	})
	if err != nil {
		s.discardVideo(ctx, draft.ID)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return report, nil
}

// discardVideo удаляет видео, для которого так и не появился отчёт
func (s *InspectionService) discardVideo(ctx context.Context, reportID string) {
	if err := s.blobs.RemoveItem(context.WithoutCancel(ctx), port.VideoBlobKey(reportID)); err != nil {
		s.log.LogError(ctx, err, "failed to remove video", "report_id", reportID)
	}
}

// extractFromBytes пишет видео во временный файл, чтобы передать путь экстрактору
func (s *InspectionService) extractFromBytes(ctx context.Context, video []byte) ([]entity.Frame, error) {
	f, err := os.CreateTemp("", "inspect-*.video")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(video); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return s.extractor.ExtractFrames(ctx, path, s.interval)
}

// Restart прерывает текущий анализ и возвращает пользователя к выбору объекта.
// Сохранённые отчёты не удаляются; видео прерванного анализа удаляет сам анализ.
func (s *InspectionService) Restart(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.mu.Lock()
	if cancel, ok := s.running[userID]; ok {
		cancel()
	}
	delete(s.drafts, userID)
	s.mu.Unlock()

	return s.users.Restart(ctx, userID, chatID)
}

// SetAddress задаёт адрес объекта в черновике текущего осмотра
func (s *InspectionService) SetAddress(userID int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.drafts[userID]
	if !ok {
		return ErrNoActiveReport
	}
	report.Address = strings.TrimSpace(address)
	return nil
}

// Current возвращает копию черновика текущего осмотра
func (s *InspectionService) Current(userID int64) (*entity.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.drafts[userID]
	if !ok {
		return nil, false
	}
	return cloneReport(report), true
}

func cloneReport(r *entity.Report) *entity.Report {
	copied := *r
	copied.Problems = append([]entity.Problem(nil), r.Problems...)
	if copied.Problems == nil {
		copied.Problems = []entity.Problem{}
	}
	return &copied
}
