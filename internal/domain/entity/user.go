package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition возвращается при переходе, которого нет в сценарии осмотра.
var ErrInvalidTransition = errors.New("invalid stage transition")

// Stage шаг сценария осмотра
type Stage string

const (
	StageWelcome Stage = "welcome" // Выбор типа объекта
	StageCapture Stage = "capture" // Ожидание видео
	StageAnalyze Stage = "analyze" // Анализ кадров
	StageResults Stage = "results" // Показ отчёта
)

// User представляет пользователя и его текущий осмотр
type User struct {
	ID           int64        // Telegram User ID
	ChatID       int64        // Telegram Chat ID
	Stage        Stage        // Текущий шаг сценария
	PropertyType PropertyType // Выбранный тип объекта
	ReportID     string       // Черновик отчёта текущего осмотра
	VideoKey     string       // Ключ сохранённого видео
}

// NewUser создаёт нового пользователя на приветственном шаге
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		Stage:  StageWelcome,
	}
}

// StartCapture фиксирует тип объекта и черновик отчёта, переводит к записи видео
func (u *User) StartCapture(propertyType PropertyType, reportID string) error {
	if u.Stage != StageWelcome {
		return u.transitionError(StageCapture)
	}
	if !propertyType.IsValid() {
		return fmt.Errorf("unknown property type %q", propertyType)
	}
	u.PropertyType = propertyType
	u.ReportID = reportID
	u.Stage = StageCapture
	return nil
}

// StartAnalysis переводит к анализу; видео уже должно быть сохранено
func (u *User) StartAnalysis(videoKey string) error {
	if u.Stage != StageCapture {
		return u.transitionError(StageAnalyze)
	}
	if videoKey == "" {
		return fmt.Errorf("%w: video is not stored", ErrInvalidTransition)
	}
	u.VideoKey = videoKey
	u.Stage = StageAnalyze
	return nil
}

// FinishAnalysis переводит к результатам после завершения агрегации
func (u *User) FinishAnalysis() error {
	if u.Stage != StageAnalyze {
		return u.transitionError(StageResults)
	}
	u.Stage = StageResults
	return nil
}

// AbortAnalysis возвращает к записи видео после сбоя анализа
func (u *User) AbortAnalysis() error {
	if u.Stage != StageAnalyze {
		return u.transitionError(StageCapture)
	}
	u.VideoKey = ""
	u.Stage = StageCapture
	return nil
}

// Restart сбрасывает осмотр к приветственному шагу
func (u *User) Restart() {
	u.Stage = StageWelcome
	u.PropertyType = ""
	u.ReportID = ""
	u.VideoKey = ""
}

func (u *User) transitionError(to Stage) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.Stage, to)
}
