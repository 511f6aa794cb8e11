package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zonghaoyuan/hotwords-cn/internal/browser"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
)

// App is the hot-list browser: one tab per channel, items listed below.
type App struct {
	client   *hotlist.Client
	channels []catalog.Channel
	limit    int
	useCache bool

	active int // channel tab index
	list   hotlist.List
	cursor int
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model

	loading bool
	err     error
}

func NewApp(client *hotlist.Client, channels []catalog.Channel, limit int, useCache bool) *App {
	ti := textinput.New()
	ti.Placeholder = "Filter items..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &App{
		client:      client,
		channels:    channels,
		limit:       limit,
		useCache:    useCache,
		searchInput: ti,
		spinner:     sp,
		loading:     true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadChannelCmd(a.active, a.useCache), a.spinner.Tick)
}

// loadChannelCmd captures the index so a slow response for a previous tab
// can't clobber the current one.
func (a *App) loadChannelCmd(idx int, useCache bool) tea.Cmd {
	client := a.client
	ch := a.channels[idx]
	limit := a.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := client.Hot(ctx, ch, limit, useCache)
		if err != nil {
			return listErrMsg{channelIdx: idx, err: err}
		}
		return listLoadedMsg{channelIdx: idx, list: list}
	}
}

func (a *App) visibleItems() []hotlist.Item {
	filter := strings.TrimSpace(a.searchInput.Value())
	if filter == "" {
		return a.list.Items
	}
	var out []hotlist.Item
	for _, it := range a.list.Items {
		if strings.Contains(strings.ToLower(it.Text()), strings.ToLower(filter)) {
			out = append(out, it)
		}
	}
	return out
}

func (a *App) switchChannel(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(a.channels) || idx == a.active {
		return a, nil
	}
	a.active = idx
	a.cursor = 0
	a.loading = true
	a.err = nil
	return a, tea.Batch(a.loadChannelCmd(idx, a.useCache), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case listLoadedMsg:
		if msg.channelIdx != a.active {
			return a, nil
		}
		a.loading = false
		a.list = msg.list
		if a.cursor >= len(a.list.Items) {
			a.cursor = max(0, len(a.list.Items)-1)
		}
		return a, nil

	case listErrMsg:
		if msg.channelIdx != a.active {
			return a, nil
		}
		a.loading = false
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.mode == modeSearch {
		switch msg.String() {
		case "esc":
			a.mode = modeNormal
			a.searchInput.SetValue("")
			a.searchInput.Blur()
			a.cursor = 0
			return a, nil
		case "enter":
			a.mode = modeNormal
			a.searchInput.Blur()
			a.cursor = 0
			return a, nil
		}
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}

	items := a.visibleItems()
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.cursor < len(items)-1 {
			a.cursor++
		}
		return a, nil
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "g":
		a.cursor = 0
		return a, nil
	case "G":
		a.cursor = max(0, len(items)-1)
		return a, nil
	case "h", "left":
		return a.switchChannel(a.active - 1)
	case "l", "right":
		return a.switchChannel(a.active + 1)
	case "o", "enter":
		if a.cursor < len(items) && items[a.cursor].URL != "" {
			url := items[a.cursor].URL
			return a, func() tea.Msg {
				if err := browser.Open(url); err != nil {
					return listErrMsg{channelIdx: a.active, err: err}
				}
				return nil
			}
		}
		return a, nil
	case "r":
		// Refetch bypassing the cache
		a.loading = true
		a.err = nil
		return a, tea.Batch(a.loadChannelCmd(a.active, false), a.spinner.Tick)
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	}

	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return headerStyle.Render("hotwords")
	}

	header := headerStyle.Render("hotwords") + " " + renderTabs(a.channels, a.active, a.width-10)

	var body string
	switch {
	case a.loading:
		body = "\n " + a.spinner.View() + " fetching " + a.channels[a.active].ID + "..."
	case a.err != nil:
		body = "\n " + errorStyle.Render(a.err.Error())
	default:
		body = renderItems(a.visibleItems(), a.cursor, a.height-4, a.width-2)
	}

	status := a.renderStatus()

	lines := strings.Split(header+"\n"+body, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, status)
	return strings.Join(lines, "\n")
}

func (a *App) renderStatus() string {
	if a.mode == modeSearch {
		return a.searchInput.View()
	}
	hints := "j/k move  h/l channel  o open  r refetch  / filter  q quit"
	bar := statusBarStyle.Width(max(0, a.width)).Render(hints)
	return bar
}

func renderTabs(channels []catalog.Channel, active, width int) string {
	sep := " "
	var row string
	for i, ch := range channels {
		style := tabInactiveStyle
		if i == active {
			style = tabActiveStyle
		}
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += style.Render(ch.ID)
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}
	return row
}

// Run starts the browse TUI.
func Run(client *hotlist.Client, channels []catalog.Channel, limit int, useCache bool) error {
	app := NewApp(client, channels, limit, useCache)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
