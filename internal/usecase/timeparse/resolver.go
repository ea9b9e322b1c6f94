package timeparse

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidFormat возвращается, если дата или время не заполнены целиком.
	ErrInvalidFormat = errors.New("дата или время заполнены не полностью")
	// ErrInvalidDate возвращается, если числа не складываются в календарную дату.
	ErrInvalidDate = errors.New("некорректная дата")
	// ErrInvalidTime возвращается, если время не разбирается в часы и минуты.
	ErrInvalidTime = errors.New("некорректное время")
)

// Resolve переводит дату dd/mm/yyyy и время hh:mm[:ss] в Unix-секунды.
// Часовой пояс — локальный для процесса, без поправок.
func Resolve(dateStr, timeStr string) (int64, error) {
	dateParts := strings.Split(strings.TrimSpace(dateStr), "/")
	if len(dateParts) != 3 || hasEmpty(dateParts) {
		return 0, ErrInvalidFormat
	}
	timeParts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(timeParts) < 2 || len(timeParts) > 3 || hasEmpty(timeParts) {
		return 0, ErrInvalidFormat
	}

	day, month, year, err := parseDate(dateParts)
	if err != nil {
		return 0, err
	}
	hour, minute, second, err := parseTime(timeParts)
	if err != nil {
		return 0, err
	}

	moment := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	// time.Date нормализует переполнение (31 февраля становится мартом),
	// поэтому сверяем компоненты обратно.
	if moment.Year() != year || moment.Month() != time.Month(month) || moment.Day() != day {
		return 0, ErrInvalidDate
	}
	if moment.Hour() != hour || moment.Minute() != minute || moment.Second() != second {
		return 0, ErrInvalidTime
	}
	return moment.Unix(), nil
}

func parseDate(parts []string) (day, month, year int, err error) {
	day, err = strconv.Atoi(parts[0])
	if err == nil {
		month, err = strconv.Atoi(parts[1])
	}
	if err == nil {
		year, err = strconv.Atoi(parts[2])
	}
	if err != nil || day <= 0 || month <= 0 || year <= 0 {
		return 0, 0, 0, ErrInvalidDate
	}
	return day, month, year, nil
}

func parseTime(parts []string) (hour, minute, second int, err error) {
	hour, err = strconv.Atoi(parts[0])
	if err == nil {
		minute, err = strconv.Atoi(parts[1])
	}
	if err == nil && len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
	}
	// Диапазоны проверяются до сборки момента: time.Date перенёс бы
	// лишние часы на следующий день и испортил бы проверку даты.
	if err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, 0, 0, ErrInvalidTime
	}
	return hour, minute, second, nil
}

func hasEmpty(parts []string) bool {
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return true
		}
	}
	return false
}
