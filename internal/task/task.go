// Package task реализует долгую операцию с имитацией прогресса.
//
// Пока выполняется реальная работа, тикер с фиксированным интервалом
// увеличивает прогресс на единицу (не выше MaxProgress) и дописывает
// строку журнала. Подписчики получают события start, tick, complete и fail.
package task

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrRunning задача уже выполняется.
var ErrRunning = errors.New("task: already running")

// EventType тип события прогресса.
type EventType string

// Типы событий.
const (
	EventStart    EventType = "start"
	EventTick     EventType = "tick"
	EventComplete EventType = "complete"
	EventFail     EventType = "fail"
)

// State состояние задачи.
type State string

// Состояния задачи.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Event событие прогресса. Log содержит строки, добавленные этим событием.
type Event struct {
	Type     EventType `json:"type"`
	Progress int       `json:"progress"`
	Status   string    `json:"status"`
	Log      []string  `json:"log,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Snapshot текущее состояние задачи целиком.
type Snapshot struct {
	State    State    `json:"state"`
	Progress int      `json:"progress"`
	Status   string   `json:"status"`
	Logs     []string `json:"logs"`
	Error    string   `json:"error,omitempty"`
}

// Stage статус и строки журнала для начала или конца задачи.
type Stage struct {
	Status string
	Logs   []string
}

// Options параметры задачи.
type Options struct {
	Interval    time.Duration
	MaxProgress int
	// TickLogs строки, одна из которых случайно выбирается на каждом тике.
	TickLogs []string
	// Pick выбирает индекс строки журнала, по умолчанию случайно.
	Pick func(n int) int
}

const subscriberBuffer = 64

// Task долгая операция с прогрессом.
type Task struct {
	opts Options

	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]chan Event
	nextID int
}

// New создаёт задачу в состоянии idle.
func New(opts Options) *Task {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxProgress <= 0 {
		opts.MaxProgress = 95
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Task{
		opts: opts,
		snap: Snapshot{State: StateIdle, Logs: []string{}},
		subs: make(map[int]chan Event),
	}
}

// Run выполняет work, пока тикер имитирует прогресс. Тикер останавливается
// до отправки завершающего события при любом исходе. Успех переводит
// прогресс в 100, ошибка сбрасывает его в 0. Возвращает ошибку work.
func (t *Task) Run(ctx context.Context, begin Stage, work func(ctx context.Context) error, finish Stage) error {
	t.mu.Lock()
	if t.snap.State == StateRunning {
		t.mu.Unlock()
		return ErrRunning
	}
	t.snap = Snapshot{
		State:    StateRunning,
		Progress: 1,
		Status:   begin.Status,
		Logs:     append([]string{}, begin.Logs...),
	}
	t.publishLocked(Event{Type: EventStart, Progress: 1, Status: begin.Status, Log: begin.Logs})
	t.mu.Unlock()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.tick(stop)
	}()

	err := work(ctx)

	close(stop)
	wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.snap.State = StateFailed
		t.snap.Progress = 0
		t.snap.Error = err.Error()
		t.publishLocked(Event{Type: EventFail, Progress: 0, Status: t.snap.Status, Error: err.Error()})
		return err
	}
	t.snap.State = StateCompleted
	t.snap.Progress = 100
	t.snap.Status = finish.Status
	t.snap.Logs = append(t.snap.Logs, finish.Logs...)
	t.publishLocked(Event{Type: EventComplete, Progress: 100, Status: finish.Status, Log: finish.Logs})
	return nil
}

func (t *Task) tick(stop <-chan struct{}) {
	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.snap.Progress < t.opts.MaxProgress {
				t.snap.Progress++
			}
			var lines []string
			if len(t.opts.TickLogs) > 0 {
				lines = []string{t.opts.TickLogs[t.opts.Pick(len(t.opts.TickLogs))]}
				t.snap.Logs = append(t.snap.Logs, lines...)
			}
			t.publishLocked(Event{Type: EventTick, Progress: t.snap.Progress, Status: t.snap.Status, Log: lines})
			t.mu.Unlock()
		}
	}
}

// publishLocked рассылает событие без блокировки: медленный подписчик
// теряет события, но всегда может запросить Snapshot.
func (t *Task) publishLocked(e Event) {
	for _, ch := range t.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe возвращает канал событий и функцию отписки, закрывающую канал.
func (t *Task) Subscribe() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	ch := make(chan Event, subscriberBuffer)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
			close(ch)
		})
	}
}

// Snapshot возвращает копию текущего состояния.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.snap
	s.Logs = append([]string{}, t.snap.Logs...)
	return s
}

// Running сообщает, выполняется ли задача.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.State == StateRunning
}

// Reset возвращает завершённую задачу в idle. Выполняющаяся задача не меняется.
func (t *Task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.State == StateRunning {
		return
	}
	t.snap = Snapshot{State: StateIdle, Logs: []string{}}
}
