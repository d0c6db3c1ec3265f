package domain

import "errors"

// Доменные ошибки, используемые для обработки бизнес-логики.
// Эти ошибки преобразуются в HTTP-ответы в слое обработчиков.
var (
	ErrListNotFound       = errors.New("stimulus list not found")    // Возникает при завершении списка с неизвестным индексом.
	ErrNoLists            = errors.New("no stimulus lists loaded")   // Возникает при выдаче списка, когда стимулы не загружены.
	ErrSubmissionNotFound = errors.New("submission not found")       // Возникает при чтении несуществующего файла ответов.
	ErrInvalidInput       = errors.New("invalid input")              // Возникает при некорректных входных данных.
	ErrInvalidStimuliFile = errors.New("invalid stimulus list file") // Возникает при разборе CSV со стимулами.
)
