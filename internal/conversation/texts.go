package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/fuelbot/internal/models"
)

// Texts holds every user-facing string of the conversation.
type Texts struct {
	CancelToken string

	ButtonNewTrip   string
	ButtonViewTrips string
	ButtonDelete    string
	ButtonSettings  string

	MainMenu       string
	Cancelled      string
	FirstRun       string
	ExtraRate      string
	SettingsSaved  string
	StartOdometer  string
	EndOdometer    string
	CargoWeight    string
	EndBeforeStart string
	NewExtraRate   string
	SettingsUpdate string

	InvalidNumber   string
	NotPositive     string
	Negative        string
	MissingSettings string
	TryLater        string

	TripsHeader  string
	NoTrips      string
	TripsDeleted string
	NothingToDel string
}

// DefaultTexts returns the Russian texts the bot ships with.
func DefaultTexts() *Texts {
	return &Texts{
		CancelToken: "Отменить",

		ButtonNewTrip:   "Новая запись",
		ButtonViewTrips: "Просмотреть записи",
		ButtonDelete:    "Удалить записи",
		ButtonSettings:  "Настройки",

		MainMenu:       "Выберите действие:",
		Cancelled:      "Действие отменено.",
		FirstRun:       "Похоже, что вы первый раз используете бот. Пожалуйста, введите базовый расход топлива (л/100 км).",
		ExtraRate:      "Теперь введите дополнительный расход топлива на тонну груза (л/100 км).",
		SettingsSaved:  "Настройки сохранены.",
		StartOdometer:  "Введи показание спидометра при выезде (км).",
		EndOdometer:    "Теперь введи показание спидометра при приезде (км).",
		CargoWeight:    "Теперь введи массу груза (кг).",
		EndBeforeStart: "❌ Ошибка! Приезд не может быть меньше выезда.",
		NewExtraRate:   "Теперь введите новый дополнительный расход топлива на тонну груза (л/100 км).",
		SettingsUpdate: "Настройки обновлены.",

		InvalidNumber:   "❌ Введи число! Попробуй ещё раз.",
		NotPositive:     "❌ Значение должно быть больше нуля. Попробуй ещё раз.",
		Negative:        "❌ Значение не может быть отрицательным. Попробуй ещё раз.",
		MissingSettings: "Произошла ошибка при получении настроек пользователя.",
		TryLater:        "Произошла ошибка, попробуйте позже.",

		TripsHeader:  "Ваши поездки:\n",
		NoTrips:      "Нет записанных поездок.",
		TripsDeleted: "Все ваши записи о поездках были удалены.",
		NothingToDel: "У вас нет записей для удаления.",
	}
}

// MenuLabels lists the main menu buttons in display order.
func (t *Texts) MenuLabels() []string {
	return []string{t.ButtonNewTrip, t.ButtonViewTrips, t.ButtonDelete, t.ButtonSettings}
}

// TripSummary reports a freshly recorded trip.
func (t *Texts) TripSummary(distance, tonnes, litres float64) string {
	return fmt.Sprintf("🚗 Пройденное расстояние: %.2f км\n"+
		"📦 Груз: %.2f тонн\n"+
		"⛽ Примерный расход топлива: %.2f литров.\n"+
		"✅ Данные сохранены.", distance, tonnes, litres)
}

// CurrentSettings shows the stored rates and asks for a new base rate.
func (t *Texts) CurrentSettings(s *models.UserSettings) string {
	return fmt.Sprintf("Ваш текущий базовый расход топлива: %s л/100 км\n"+
		"Ваш текущий дополнительный расход топлива на тонну груза: %s л/100 км\n"+
		"Введите новый базовый расход топлива (л/100 км):",
		formatRate(s.BaseRate), formatRate(s.ExtraRatePerTon))
}

// TripList renders every trip; callers handle the empty case.
func (t *Texts) TripList(trips []models.Trip) string {
	var b strings.Builder
	b.WriteString(t.TripsHeader)
	for _, trip := range trips {
		fmt.Fprintf(&b, "Дата: %s\nРасстояние: %.2f км\nГруз: %.2f тонн\nРасход: %.2f л\n\n",
			trip.Date.Format("2006-01-02"), trip.Distance(), trip.CargoTonnes(), trip.TotalFuel)
	}
	return b.String()
}

// formatRate prints the shortest exact form, keeping one decimal for whole numbers ("10.0").
func formatRate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
