package domain

import "strconv"

// Message представляет сообщение удалённой платформы. Платформа владеет
// записью; ядро держит только временные копии.
type Message struct {
	TS   string `json:"ts"`
	Type string `json:"type,omitempty"`
	User string `json:"user,omitempty"`
	Text string `json:"text"`
}

// Seconds возвращает метку ts в секундах с дробной частью.
func (m Message) Seconds() float64 {
	v, err := strconv.ParseFloat(m.TS, 64)
	if err != nil {
		return 0
	}
	return v
}

// Identity описывает действующую учётную запись бота на платформе.
type Identity struct {
	UserID string
	BotID  string
	Team   string
}

// HistoryQuery задаёт параметры выборки истории канала.
type HistoryQuery struct {
	Oldest    string
	Latest    string
	Inclusive bool
	Limit     int
}

// PostResult — ответ платформы на немедленную отправку.
type PostResult struct {
	Channel string  `json:"channel"`
	TS      string  `json:"ts"`
	Message Message `json:"message"`
}

// ScheduleResult — ответ платформы на отложенную отправку.
type ScheduleResult struct {
	Channel            string `json:"channel"`
	ScheduledMessageID string `json:"scheduled_message_id"`
	PostAt             int64  `json:"post_at"`
	ScheduledFor       string `json:"scheduled_for,omitempty"`
}

// UpdateResult — ответ платформы на редактирование сообщения.
type UpdateResult struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
	Text    string `json:"text"`
}

// DeleteResult — ответ платформы на удаление сообщения.
type DeleteResult struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}
