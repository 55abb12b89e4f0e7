package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/leorudin/paperwave/internal/playback"
	"github.com/leorudin/paperwave/internal/store"
)

// cardLines is the fixed height of one rendered card.
const cardLines = 4

// CardState carries the per-card overlay and narration state the renderer
// needs. The App computes it; the stream stays a dumb viewport.
type CardState struct {
	Liked      bool
	Bookmarked bool
	Narrated   bool // this card owns the narration cursor
	Playback   playback.State
	AudioErr   playback.AudioError
}

// Stream is the swipeable card viewport. The cursor moves instantly; the
// window offset chases it through a spring so paging and auto-advance glide
// instead of jumping.
type Stream struct {
	papers     []store.Paper
	cursor     int
	selectedID string

	width  int
	height int

	offset       int // window top, in cards
	scrollPos    float64
	scrollVel    float64
	scrollTarget float64
	spring       harmonica.Spring

	spinner spinner.Model
}

func NewStream() Stream {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)
	return Stream{
		spring:  harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.8),
		spinner: s,
	}
}

func (m *Stream) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.retarget()
}

// SetPapers replaces the backing list. If the selected paper survives, the
// cursor follows it to its new index; otherwise the cursor clamps in place
// and the scroll snaps (a reshuffle is not worth animating across).
func (m *Stream) SetPapers(papers []store.Paper) {
	m.papers = papers
	if m.selectedID != "" {
		for i := range papers {
			if papers[i].ID == m.selectedID {
				m.cursor = i
				m.retarget()
				return
			}
		}
	}
	if m.cursor >= len(papers) {
		m.cursor = len(papers) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(papers) == 0 {
		m.selectedID = ""
	} else {
		m.selectedID = papers[m.cursor].ID
	}
	m.retarget()
	m.snap()
}

func (m *Stream) MoveDown() bool {
	if m.cursor >= len(m.papers)-1 {
		return false
	}
	m.cursor++
	m.selectedID = m.papers[m.cursor].ID
	m.retarget()
	return true
}

func (m *Stream) MoveUp() bool {
	if m.cursor <= 0 {
		return false
	}
	m.cursor--
	m.selectedID = m.papers[m.cursor].ID
	m.retarget()
	return true
}

func (m *Stream) JumpTop() {
	if len(m.papers) == 0 {
		return
	}
	m.cursor = 0
	m.selectedID = m.papers[0].ID
	m.retarget()
}

func (m *Stream) JumpBottom() {
	if len(m.papers) == 0 {
		return
	}
	m.cursor = len(m.papers) - 1
	m.selectedID = m.papers[m.cursor].ID
	m.retarget()
}

// ScrollToID moves the cursor to the card with the given id, reporting
// whether it was found. Used for narration auto-advance, so the glide stays
// animated like a user swipe.
func (m *Stream) ScrollToID(id string) bool {
	for i := range m.papers {
		if m.papers[i].ID == id {
			m.cursor = i
			m.selectedID = id
			m.retarget()
			return true
		}
	}
	return false
}

func (m Stream) CurrentID() string {
	if m.cursor < 0 || m.cursor >= len(m.papers) {
		return ""
	}
	return m.papers[m.cursor].ID
}

func (m Stream) Cursor() int { return m.cursor }

func (m Stream) Len() int { return len(m.papers) }

// Papers returns the backing list for per-card state derivation.
func (m Stream) Papers() []store.Paper { return m.papers }

// UpdateScroll advances the spring one frame.
func (m *Stream) UpdateScroll() {
	m.scrollPos, m.scrollVel = m.spring.Update(m.scrollPos, m.scrollVel, m.scrollTarget)
}

// IsScrolling reports whether the window is still visibly moving.
func (m Stream) IsScrolling() bool {
	return math.Abs(m.scrollPos-m.scrollTarget) > 0.01
}

func (m *Stream) TickSpinner(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m Stream) visibleCards() int {
	v := m.height / cardLines
	if v < 1 {
		v = 1
	}
	return v
}

// retarget recomputes the follow-window offset for the current cursor and
// points the spring at it. Moves inside the window leave the offset alone.
func (m *Stream) retarget() {
	m.offset = followOffset(m.offset, m.cursor, m.visibleCards(), len(m.papers))
	m.scrollTarget = float64(m.offset)
}

func (m *Stream) snap() {
	m.scrollPos = m.scrollTarget
	m.scrollVel = 0
}

// followOffset keeps cursor inside [offset, offset+visible) while moving the
// window as little as possible.
func followOffset(offset, cursor, visible, total int) int {
	if total <= visible {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	return clampOffset(offset, visible, total)
}

// clampOffset bounds a window offset (possibly mid-animation) to the list.
func clampOffset(offset, visible, total int) int {
	if total <= visible {
		return 0
	}
	if offset > total-visible {
		offset = total - visible
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// View renders the visible card window. states is index-aligned with the
// papers passed to SetPapers.
func (m Stream) View(states []CardState, loading bool) string {
	if len(m.papers) == 0 {
		if loading {
			return m.spinner.View() + helpStyle.Render(" Loading papers...")
		}
		return helpStyle.Render("No papers. Press r to reload or / to search.")
	}

	visible := m.visibleCards()
	start := clampOffset(int(math.Round(m.scrollPos)), visible, len(m.papers))
	end := start + visible
	if end > len(m.papers) {
		end = len(m.papers)
	}

	lines := make([]string, 0, (end-start)*cardLines)
	for i := start; i < end; i++ {
		var st CardState
		if i < len(states) {
			st = states[i]
		}
		lines = append(lines, renderCard(m.papers[i], st, i == m.cursor, m.width)...)
	}
	return strings.Join(lines, "\n")
}

func renderCard(p store.Paper, st CardState, selected bool, width int) []string {
	textw := width - 2
	gutter := "  "
	tstyle := titleStyle
	if selected {
		gutter = markerStyle.Render("▌ ")
		tstyle = titleSelectedStyle
	}

	title := tstyle.Render(fitLine(p.Title, textw))
	byline := bylineStyle.Render(fitLine(formatByline(p.Authors), textw))
	meta := metaStyle.Render(fitLine(formatMeta(p), textw))
	status := renderCardStatus(st)

	return []string{
		gutter + title,
		gutter + byline,
		gutter + meta,
		gutter + status,
	}
}

func renderCardStatus(st CardState) string {
	parts := make([]string, 0, 3)
	if st.Liked {
		parts = append(parts, likedGlyphStyle.Render("♥ liked"))
	}
	if st.Bookmarked {
		parts = append(parts, savedGlyphStyle.Render("⚑ saved"))
	}
	if s := narrationLabel(st); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "  ")
}

func narrationLabel(st CardState) string {
	if !st.Narrated {
		return ""
	}
	switch st.Playback {
	case playback.StateLoading:
		return narrationStyle.Render("◌ loading audio")
	case playback.StatePlaying:
		return narrationStyle.Render("▶ playing")
	case playback.StatePaused:
		return narrationStyle.Render("‖ paused")
	case playback.StateError:
		if st.AudioErr == playback.AudioNotGenerated {
			return narrationErrStyle.Render("⚠ no narration available")
		}
		return narrationErrStyle.Render("⚠ narration failed")
	}
	return ""
}

func formatByline(authors []string) string {
	const maxNames = 3
	if len(authors) == 0 {
		return "unknown authors"
	}
	if len(authors) <= maxNames {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(authors[:maxNames], ", "), len(authors)-maxNames)
}

func formatMeta(p store.Paper) string {
	parts := make([]string, 0, 3)
	if p.SourceID != "" {
		parts = append(parts, p.SourceID)
	}
	if !p.PublishedAt.IsZero() {
		parts = append(parts, p.PublishedAt.Format("2006-01-02"))
	}
	if len(p.Categories) > 0 {
		parts = append(parts, strings.Join(p.Categories, " "))
	}
	return strings.Join(parts, " · ")
}

func fitLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// RenderStatusBar draws the bottom bar: position and session label on the
// left, key hints on the right, padded to the full width.
func RenderStatusBar(width, cursor, total int, loading bool, label string) string {
	pos := fmt.Sprintf(" %d/%d ", cursor+1, total)
	if total == 0 {
		pos = " 0/0 "
	}
	left := pos
	if label != "" {
		left += "· " + label + " "
	}
	if loading {
		left += "· loading "
	}

	hints := " space speak · l like · b save · / search · q quit "
	gap := width - lipgloss.Width(left) - lipgloss.Width(hints)
	if gap < 0 {
		hints = ""
		gap = width - lipgloss.Width(left)
		if gap < 0 {
			gap = 0
		}
	}

	return statusBarStyle.Render(left+strings.Repeat(" ", gap)) + statusHintStyle.Render(hints)
}

// RenderSearchBar draws the active search input above the status bar.
func RenderSearchBar(input string, width int) string {
	return searchBarStyle.Render(padRight(" "+input, width))
}

// RenderErrorBar draws a one-line error banner. Cleared on the next keypress.
func RenderErrorBar(err error, width int) string {
	msg := fitLine(" error: "+err.Error(), width)
	return errorBarStyle.Render(padRight(msg, width))
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
