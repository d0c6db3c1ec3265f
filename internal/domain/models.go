package domain

import (
	"encoding/json"
	"time"
)

// Stimulus описывает один элемент списка: строку CSV, где ключи - заголовки колонок.
type Stimulus map[string]any

// StimulusList содержит список стимулов, выдаваемый одному участнику.
type StimulusList struct {
	Idx   string     `json:"idx"`
	Items []Stimulus `json:"stim"`
}

// ListCounts отображает индекс списка в его счётчик использования.
// Целая часть - число завершённых прохождений, дробная - открытые выдачи.
type ListCounts map[string]float64

// Submission хранит ответы участника под именем файла.
type Submission struct {
	Filename   string          `json:"filename"`
	Data       json.RawMessage `json:"filedata"`
	ReceivedAt time.Time       `json:"received_at"`
}

// ExperimentSettings - публичное представление констант эксперимента для клиента.
type ExperimentSettings struct {
	RoutingMode                string  `json:"routing_mode"`
	SaveURL                    string  `json:"save_url"`
	TrialsPerBlock             int     `json:"trials_per_block"`
	StimulusDurationMs         int64   `json:"stimulus_duration"`
	FixationDurationMs         int64   `json:"fixation_duration"`
	CompletionCode             string  `json:"completion_code"`
	NBackBase                  int     `json:"n_back_base"`
	VigilanceRepeatBackRange   [2]int  `json:"vigilance_repeat_back_range"`
	VigilanceFrequency         float64 `json:"vigilance_frequency"`
	RepeatListShuffleBlockSize int     `json:"repeat_list_shuffle_block_size"`
	BreaksPerExp               int     `json:"breaks_per_exp"`
	BreakMaxLenSeconds         int64   `json:"break_max_len"`
	NumLists                   int     `json:"num_lists"`
	DebugMode                  bool    `json:"debug_mode"`
}
