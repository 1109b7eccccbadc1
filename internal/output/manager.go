package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type ItemOutput struct {
	ID           int
	URL          string
	Status       string
	Message      string
	ProgressLine string
	Complete     bool
	StartTime    time.Time
	LastUpdated  time.Time
	Error        error
	Index        int
}

type ErrorReport struct {
	URL   string
	Error error
	Time  time.Time
}

// Manager renders the live per-item display: one status line per manifest
// item plus an optional progress line, redrawn on a ticker, with a summary
// and error list once the run finishes.
type Manager struct {
	outputs     map[int]*ItemOutput
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	itemCount   int
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		outputs:     make(map[int]*ItemOutput),
		errors:      []ErrorReport{},
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(url string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.itemCount++
	m.outputs[m.itemCount] = &ItemOutput{
		ID:          m.itemCount,
		URL:         url,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.itemCount,
	}
	return m.itemCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) SetStatus(id int, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = status
		info.LastUpdated = time.Now()
	}
}

// SetProgress renders the item's progress bar line from the byte counts.
func (m *Manager) SetProgress(id int, downloaded, total int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		bar := PrintProgressBar(max(0, downloaded), total, 30)
		elapsed := time.Since(info.StartTime).Seconds()
		info.ProgressLine = fmt.Sprintf("%s%s %s %s", bar, debugStyle.Render(FormatBytes(uint64(max(0, downloaded)))), StyleSymbols["bullet"], debugStyle.Render(FormatSpeed(downloaded, elapsed)))
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		if message == "" {
			info.Message = fmt.Sprintf("Completed %s", info.URL)
		} else {
			info.Message = message
		}
		info.ProgressLine = ""
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.ProgressLine = ""
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			URL:   info.URL,
			Error: err,
			Time:  time.Now(),
		})
	}
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default: // downloading, extracting
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortedItems() []*ItemOutput {
	var items []*ItemOutput
	for _, info := range m.outputs {
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index < items[j].Index
	})
	return items
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}

	lineCount := 0
	for _, info := range m.sortedItems() {
		if lineCount >= availableLines {
			break
		}
		statusDisplay := m.GetStatusIndicator(info.Status)
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		var styledMessage string
		switch info.Status {
		case "success":
			styledMessage = successStyle.Render(info.Message)
		case "error":
			styledMessage = errorStyle.Render(info.Message)
		case "pending":
			styledMessage = pendingStyle.Render(info.Message)
		default:
			styledMessage = infoStyle.Render(info.Message)
		}
		fmt.Printf("%s%s %s %s\n", strings.Repeat(" ", 2), statusDisplay, debugStyle.Render(elapsed.String()), styledMessage)
		lineCount++
		if info.ProgressLine != "" && lineCount < availableLines {
			fmt.Printf("%s%s\n", strings.Repeat(" ", 2+4), info.ProgressLine)
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(strings.Repeat(" ", 2) + errorStyle.Bold(true).Render("Errors:"))
	for i, err := range m.errors {
		fmt.Printf("%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
			errorStyle.Render(err.URL))
		fmt.Printf("%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Error: %v", err.Error)))
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var success, failures int
	for _, info := range m.outputs {
		if info.Status == "success" {
			success++
		} else if info.Status == "error" {
			failures++
		}
	}
	fmt.Println(strings.Repeat(" ", 2) + success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Println(strings.Repeat(" ", 2) + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	m.displayErrors()
	fmt.Println()
}
