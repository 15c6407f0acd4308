package bot

import "sync"

// OrderLocks - карта мьютексов по id ордера
//
// Внутри одного ордера submit и refreshState не должны выполняться
// одновременно: оба пишут state (+comments) одной записью, и
// чередование дало бы полузаписанное состояние. Ордера независимы,
// поэтому блокировка - по ключу, а не глобальная.
//
// Мьютексы не освобождаются: количество ордеров за время жизни
// процесса ограничено, а переиспользование делает Lock дешёвым.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewOrderLocks создаёт пустую карту блокировок
func NewOrderLocks() *OrderLocks {
	return &OrderLocks{
		locks: make(map[int]*sync.Mutex),
	}
}

// Lock захватывает мьютекс ордера и возвращает функцию освобождения
//
//	unlock := locks.Lock(orderID)
//	defer unlock()
func (l *OrderLocks) Lock(orderID int) func() {
	l.mu.Lock()
	m, ok := l.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orderID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
