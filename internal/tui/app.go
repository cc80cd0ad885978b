package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/browser"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/explorer"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modeConfirm
	modeDetail
	modeHelp
)

const (
	defaultQueryTimeout = 2 * time.Minute
	detailTimeout       = 20 * time.Second
)

type App struct {
	session *explorer.Session
	favs    *favorites.Set
	logger  *slog.Logger
	artwork func(ctx context.Context, id, speciesID int) string
	open    func(url string) error
	timeout time.Duration

	mode   mode
	width  int
	height int

	// Sub-components
	searchInput textinput.Model
	spinner     spinner.Model
	filters     filterPanel

	// State
	page          catalog.Page
	loaded        bool
	cursor        int
	loading       bool
	queryErr      string
	err           error
	previewScroll int

	detail        *pokeapi.Detail
	detailItem    *catalog.Item
	detailErr     string
	detailLoading bool
	artworks      map[int]string
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Session *explorer.Session
	Logger  *slog.Logger
	// Artwork resolves the image for a detail view; nil keeps the listing URL.
	Artwork func(ctx context.Context, id, speciesID int) string
	// Open launches a URL; defaults to browser.Open.
	Open func(url string) error
	// Timeout bounds one query; heavy queries fetch every detail record.
	Timeout time.Duration
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search Pokemon..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 50
	ti.SetValue(opts.Session.Search())

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	open := opts.Open
	if open == nil {
		open = browser.Open
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &App{
		session:     opts.Session,
		favs:        opts.Session.Favorites(),
		logger:      logger,
		artwork:     opts.Artwork,
		open:        open,
		timeout:     timeout,
		searchInput: ti,
		spinner:     sp,
		filters:     newFilterPanel(opts.Session.Staged()),
		artworks:    make(map[int]string),
	}
}

func (a *App) Init() tea.Cmd {
	return a.refresh()
}

// refresh starts a query for the current session state. A heavy query opens
// the confirmation dialog instead.
func (a *App) refresh() tea.Cmd {
	plan, err := a.session.Prepare()
	if errors.Is(err, explorer.ErrAwaitingConfirmation) {
		a.mode = modeConfirm
		a.loading = false
		return nil
	}
	if err != nil {
		a.err = err
		return nil
	}

	a.loading = true
	a.queryErr = ""
	s := a.session
	timeout := a.timeout
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resultMsg{res: s.Execute(ctx, plan)}
	})
}

func (a *App) loadDetailCmd(id int) tea.Cmd {
	p := a.session.Pipeline()
	resolve := a.artwork
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()
		item, d, err := p.Detail(ctx, id)
		if err != nil {
			return detailMsg{id: id, err: err}
		}
		if resolve != nil {
			item.Image = resolve(ctx, item.ID, item.SpeciesID)
		}
		return detailMsg{id: id, item: item, detail: d}
	}
}

func (a *App) openArtworkCmd(url string) tea.Cmd {
	open := a.open
	return func() tea.Msg {
		if err := open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) selected() *catalog.Item {
	if a.cursor < 0 || a.cursor >= len(a.page.Items) {
		return nil
	}
	return &a.page.Items[a.cursor]
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case resultMsg:
		if !a.session.Accept(msg.res) {
			a.logger.Debug("discarding superseded result", "query", msg.res.ID)
			return a, nil
		}
		a.loading = false
		a.loaded = true
		if msg.res.Failed() {
			a.queryErr = msg.res.Err
			a.page = msg.res.Page
			a.cursor = 0
			return a, nil
		}
		a.queryErr = ""
		a.page = msg.res.Page
		if a.cursor >= len(a.page.Items) {
			a.cursor = max(0, len(a.page.Items)-1)
		}
		a.previewScroll = 0
		return a, nil

	case detailMsg:
		if a.detailItem == nil || a.detailItem.ID != msg.id {
			return a, nil
		}
		a.detailLoading = false
		if msg.err != nil {
			a.logger.Error("failed to load pokemon details", "id", msg.id, "error", msg.err)
			a.detailErr = detailError
			return a, nil
		}
		item := msg.item
		a.detailItem = &item
		a.detail = msg.detail
		a.artworks[item.ID] = item.Image
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading || a.detailLoading {
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

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeConfirm:
		return a.handleConfirmKey(msg)
	case modeDetail:
		return a.handleDetailKey(msg)
	case modeHelp:
		if key.Matches(msg, keys.Help, keys.Quit) || msg.String() == "esc" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.page.Items)-1 {
			a.cursor++
			a.previewScroll = 0
		}
		return a, nil
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		}
		return a, nil
	case key.Matches(msg, keys.NextPage):
		if a.page.HasMore && !a.loading {
			a.session.SetPage(a.page.CurrentPage + 1)
			a.cursor = 0
			return a, a.refresh()
		}
		return a, nil
	case key.Matches(msg, keys.PrevPage):
		if a.page.CurrentPage > 1 && !a.loading {
			a.session.SetPage(a.page.CurrentPage - 1)
			a.cursor = 0
			return a, a.refresh()
		}
		return a, nil
	case key.Matches(msg, keys.Open):
		return a, a.openDetail()
	case key.Matches(msg, keys.Favorite):
		return a, a.toggleFavorite()
	case key.Matches(msg, keys.FavOnly):
		a.session.SetFavoritesOnly(!a.session.FavoritesOnly())
		a.cursor = 0
		return a, a.refresh()
	case key.Matches(msg, keys.Search):
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case key.Matches(msg, keys.Filter):
		a.openFilters()
		return a, nil
	case key.Matches(msg, keys.Sort):
		s := a.session.Sort()
		s.Field = s.Field.Next()
		a.session.SetSort(s)
		a.cursor = 0
		return a, a.refresh()
	case key.Matches(msg, keys.Direction):
		s := a.session.Sort()
		if s.IsDefault() {
			return a, nil
		}
		if s.Direction == catalog.Desc {
			s.Direction = catalog.Asc
		} else {
			s.Direction = catalog.Desc
		}
		a.session.SetSort(s)
		a.cursor = 0
		return a, a.refresh()
	case key.Matches(msg, keys.Reset):
		a.session.Reset()
		a.session.SetSort(catalog.DefaultSort())
		a.cursor = 0
		return a, a.refresh()
	case key.Matches(msg, keys.Retry):
		if !a.loading {
			return a, a.refresh()
		}
		return a, nil
	case key.Matches(msg, keys.Help):
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) openDetail() tea.Cmd {
	it := a.selected()
	if it == nil {
		return nil
	}
	item := *it
	a.mode = modeDetail
	a.detailItem = &item
	a.detail = nil
	a.detailErr = ""
	a.detailLoading = true
	a.previewScroll = 0
	return tea.Batch(a.spinner.Tick, a.loadDetailCmd(item.ID))
}

func (a *App) openFilters() {
	a.filters = newFilterPanel(a.session.Applied())
	a.session.StageFilters(a.filters.spec)
	a.mode = modeFilter
}

func (a *App) toggleFavorite() tea.Cmd {
	var id int
	switch {
	case a.mode == modeDetail && a.detailItem != nil:
		id = a.detailItem.ID
	case a.selected() != nil:
		id = a.selected().ID
	default:
		return nil
	}
	if a.favs == nil {
		return nil
	}
	a.favs.Toggle(id)
	// Unfavoriting in favorites mode removes the row
	if a.session.FavoritesOnly() && a.mode != modeDetail {
		return a.refresh()
	}
	return nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		if a.session.Search() == "" {
			return a, nil
		}
		a.session.SetSearch("")
		a.cursor = 0
		return a, a.refresh()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		if a.searchInput.Value() == a.session.Search() {
			return a, nil
		}
		a.session.SetSearch(a.searchInput.Value())
		a.cursor = 0
		return a, a.refresh()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		// discard staged edits
		a.session.StageFilters(a.session.Applied())
		a.mode = modeNormal
		return a, nil
	case "enter":
		a.session.StageFilters(a.filters.spec)
		a.mode = modeNormal
		if !a.session.Dirty() {
			return a, nil
		}
		a.session.CommitFilters()
		a.cursor = 0
		return a, a.refresh()
	case "up", "k":
		a.filters.up()
	case "down", "j":
		a.filters.down()
	case "left", "h":
		a.filters.left()
	case "right", "l":
		a.filters.right()
	case " ":
		a.filters.toggle()
	case "+", "=":
		a.filters.adjust(false, statStep)
	case "-", "_":
		a.filters.adjust(false, -statStep)
	case ">", ".":
		a.filters.adjust(true, statStep)
	case "<", ",":
		a.filters.adjust(true, -statStep)
	case "x":
		a.filters.reset()
	default:
		return a, nil
	}
	a.session.StageFilters(a.filters.spec)
	return a, nil
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		a.session.Confirm()
		a.mode = modeNormal
		return a, a.refresh()
	case "n", "esc":
		// Start over from defaults and let the user narrow first
		a.session.Abandon()
		a.cursor = 0
		cmd := a.refresh()
		a.openFilters()
		return a, cmd
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc", msg.String() == "backspace", key.Matches(msg, keys.Quit):
		a.mode = modeNormal
		a.detail = nil
		a.detailItem = nil
		a.previewScroll = 0
		if a.session.FavoritesOnly() {
			// favorites may have changed while the detail was open
			return a, a.refresh()
		}
		return a, nil
	case key.Matches(msg, keys.Down):
		a.previewScroll++
		return a, nil
	case key.Matches(msg, keys.Up):
		if a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case key.Matches(msg, keys.Favorite):
		return a, a.toggleFavorite()
	case key.Matches(msg, keys.Artwork):
		if a.detailItem != nil && a.detailItem.Image != "" {
			return a, a.openArtworkCmd(a.detailItem.Image)
		}
		return a, nil
	case key.Matches(msg, keys.Retry):
		if a.detailErr != "" && a.detailItem != nil {
			a.detailErr = ""
			a.detailLoading = true
			return a, tea.Batch(a.spinner.Tick, a.loadDetailCmd(a.detailItem.ID))
		}
		return a, nil
	}
	return a, nil
}

func (a *App) preview() preview {
	if a.mode == modeDetail {
		p := preview{
			item:    a.detailItem,
			detail:  a.detail,
			loading: a.detailLoading,
			err:     a.detailErr,
		}
		if a.detailItem != nil {
			p.favorite = a.favs != nil && a.favs.Has(a.detailItem.ID)
			p.artwork = a.artworks[a.detailItem.ID]
		}
		return p
	}
	it := a.selected()
	if it == nil {
		return preview{}
	}
	return preview{
		item:     it,
		favorite: a.favs != nil && a.favs.Has(it.ID),
		artwork:  a.artworks[it.ID],
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  pokedex")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	headerHeight := 1
	barHeight := 1
	if a.mode == modeFilter {
		barHeight = int(sectionCount) + 1
	}
	statusHeight := 1
	contentHeight := max(a.height-headerHeight-barHeight-statusHeight-2, 3) // borders

	// Header
	headerLeft := headerStyle.Render("pokedex")
	meta := ""
	if a.loading {
		meta = a.spinner.View() + " loading"
	}
	headerRight := headerMetaStyle.Render(meta + " ")
	headerGap := max(a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight), 0)
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Filter summary, search input or filter panel
	var bar string
	switch a.mode {
	case modeSearch:
		bar = a.searchInput.View()
	case modeFilter:
		bar = a.filters.render(a.width, a.session.Dirty())
	default:
		summary := "Filters: " + filterSummary(a.session.Applied())
		if q := strings.TrimSpace(a.session.Search()); q != "" {
			summary += ` · search "` + q + `"`
		}
		bar = helpDimStyle.Render(" " + truncateStr(summary, a.width-2))
	}

	var content string
	switch {
	case a.mode == modeConfirm:
		content = renderHeavyDialog(a.session.Guard().Operation(), a.width, contentHeight+2)
	case !a.loaded && a.loading:
		content = renderSplash(a.width, contentHeight+2, a.spinner.View())
	case a.queryErr != "":
		content = renderErrorState(a.queryErr, a.width, contentHeight+2)
	case a.mode == modeDetail:
		content = previewPaneStyle.Width(a.width-2).Height(contentHeight).
			Render(renderPreview(a.preview(), a.width-4, contentHeight, a.previewScroll))
	case a.loaded && len(a.page.Items) == 0:
		content = renderEmptyState(a.session.Search(), a.session.FavoritesOnly(), a.width, contentHeight+2)
	default:
		listWidth := int(float64(a.width) * 0.4)
		previewWidth := a.width - listWidth
		listContent := renderList(a.page.Items, a.favs, a.cursor, contentHeight, listWidth-4)
		listPane := listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
		previewPane := previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).
			Render(renderPreview(a.preview(), previewWidth-4, contentHeight, a.previewScroll))
		content = lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)
	}

	favCount := 0
	if a.favs != nil {
		favCount = a.favs.Len()
	}
	status := renderStatusBar(statusInfo{
		page:          a.page,
		pageSize:      a.session.PageSize(),
		sort:          a.session.Sort(),
		favoritesOnly: a.session.FavoritesOnly(),
		favorites:     favCount,
		mode:          a.mode,
	}, a.width)

	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("pokedex")

	var b strings.Builder
	b.WriteString(title + helpDimStyle.Render(" keyboard shortcuts") + "\n")
	for _, g := range keys.helpGroups() {
		b.WriteString("\n" + helpDimStyle.Render(g.title) + "\n")
		for _, k := range g.bindings {
			h := k.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n" + helpDimStyle.Render("Filter panel") + "\n")
	b.WriteString("  ↑/↓ ←/→      Move between sections and options\n")
	b.WriteString("  space         Toggle option\n")
	b.WriteString("  +/-  >/<      Raise or lower a stat minimum / maximum\n")
	b.WriteString("  enter, esc    Apply or discard changes")

	card := helpCardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
