package domain

import "errors"

var (
	// ErrFeed страница ленты не получена.
	ErrFeed = errors.New("ошибка ленты")
	// ErrFormat объявление не удалось превратить в сообщение.
	ErrFormat = errors.New("ошибка форматирования")
	// ErrDelivery мессенджер отклонил сообщение.
	ErrDelivery = errors.New("ошибка доставки")
	// ErrStore хранилище просмотренных объявлений недоступно.
	ErrStore = errors.New("ошибка хранилища")
	// ErrCursorRegression лента вернула дни не по порядку.
	ErrCursorRegression = errors.New("курсор ленты пошёл назад")
)
