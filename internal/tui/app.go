package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/waabox/shopdeck/internal/apiclient"
	"github.com/waabox/shopdeck/internal/domain"
	"github.com/waabox/shopdeck/internal/locale"
	"github.com/waabox/shopdeck/internal/session"
	"github.com/waabox/shopdeck/internal/shop"
)

// Storefront is the subset of shop.Service the UI needs.
type Storefront interface {
	Products(ctx context.Context, q shop.ProductQuery) (domain.Page[domain.Product], error)
	Cart(ctx context.Context, page int) (domain.Page[domain.CartItem], error)
	Orders(ctx context.Context, page int) (domain.Page[domain.Order], error)
	Logout(ctx context.Context) error
}

// Language is the current-language setting the UI can change.
type Language interface {
	Get() string
	Set(code string) error
}

// ProductsLoadedMsg is sent when a catalog page has been fetched.
// It is exported so that tests can inject it directly into AppModel.Update.
type ProductsLoadedMsg struct {
	Page domain.Page[domain.Product]
	Err  error
}

// CartLoadedMsg is sent when a cart page has been fetched.
type CartLoadedMsg struct {
	Page domain.Page[domain.CartItem]
	Err  error
}

// OrdersLoadedMsg is sent when an order history page has been fetched.
type OrdersLoadedMsg struct {
	Page domain.Page[domain.Order]
	Err  error
}

// SessionExpiredMsg is delivered when auth:refresh-failed is published.
type SessionExpiredMsg struct{}

// LoggedOutMsg is sent when the logout call completes.
type LoggedOutMsg struct {
	Err error
}

type tab int

const (
	tabProducts tab = iota
	tabCart
	tabOrders
)

var tabNames = []string{"Products", "Cart", "Orders"}

// viewState indicates the current navigation level.
type viewState int

const (
	viewList viewState = iota
	viewOrderDetail
	viewSessionExpired
	viewLoggedOut
)

const requestTimeout = 30 * time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	activeTab   = lipgloss.NewStyle().Bold(true).Underline(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	separator   = "────────────────────────────────────────────────────────────\n"
)

// AppModel is the root Bubbletea model for shopdeck.
type AppModel struct {
	shop      Storefront
	lang      Language
	supported []string
	user      domain.User

	view    viewState
	tab     tab
	pages   [3]int
	total   [3]int
	list    ListModel
	detail  ListModel
	loading bool
	err     error
	notice  string

	products []domain.Product
	cart     []domain.CartItem
	orders   []domain.Order
	selected domain.Order
}

// NewAppModel creates the root application model.
func NewAppModel(s Storefront, lang Language, supported []string, user domain.User) AppModel {
	return AppModel{
		shop:      s,
		lang:      lang,
		supported: supported,
		user:      user,
		pages:     [3]int{1, 1, 1},
		list:      NewListModel(nil, "Nothing here yet."),
		loading:   true,
	}
}

// Init triggers the initial catalog load.
func (m AppModel) Init() tea.Cmd {
	return m.load()
}

func (m AppModel) load() tea.Cmd {
	page := m.pages[m.tab]
	switch m.tab {
	case tabCart:
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			p, err := m.shop.Cart(ctx, page)
			return CartLoadedMsg{Page: p, Err: err}
		}
	case tabOrders:
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			p, err := m.shop.Orders(ctx, page)
			return OrdersLoadedMsg{Page: p, Err: err}
		}
	default:
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			p, err := m.shop.Products(ctx, shop.ProductQuery{Page: page})
			return ProductsLoadedMsg{Page: p, Err: err}
		}
	}
}

func (m AppModel) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return LoggedOutMsg{Err: m.shop.Logout(ctx)}
	}
}

// failed records err, switching to the session-expired view when the
// credential could not be refreshed.
func (m AppModel) failed(err error) (tea.Model, tea.Cmd) {
	m.loading = false
	if errors.Is(err, domain.ErrSessionExpired) {
		m.view = viewSessionExpired
		m.err = nil
		return m, nil
	}
	m.err = err
	return m, nil
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case ProductsLoadedMsg:
		if msg.Err != nil {
			return m.failed(msg.Err)
		}
		m.loading, m.err = false, nil
		m.products = msg.Page.Data
		m.total[tabProducts] = msg.Page.TotalPages
		if m.tab == tabProducts {
			m.list = NewListModel(productRows(m.products), "No products found.")
		}

	case CartLoadedMsg:
		if msg.Err != nil {
			return m.failed(msg.Err)
		}
		m.loading, m.err = false, nil
		m.cart = msg.Page.Data
		m.total[tabCart] = msg.Page.TotalPages
		if m.tab == tabCart {
			m.list = NewListModel(cartRows(m.cart), "Your cart is empty.")
		}

	case OrdersLoadedMsg:
		if msg.Err != nil {
			return m.failed(msg.Err)
		}
		m.loading, m.err = false, nil
		m.orders = msg.Page.Data
		m.total[tabOrders] = msg.Page.TotalPages
		if m.tab == tabOrders {
			m.list = NewListModel(orderRows(m.orders), "No orders yet.")
		}

	case SessionExpiredMsg:
		m.loading = false
		m.view = viewSessionExpired
		return m, nil

	case LoggedOutMsg:
		m.loading = false
		m.view = viewLoggedOut
		m.user = domain.User{}
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			m.view = viewList
			m.loading = true
			m.err = nil
			return m, m.load()
		}
		switch m.view {
		case viewList:
			return m.updateList(msg)
		case viewOrderDetail:
			if msg.String() == "esc" {
				m.view = viewList
			} else if msg.String() == "down" {
				m.detail = m.detail.MoveDown()
			} else if msg.String() == "up" {
				m.detail = m.detail.MoveUp()
			}
		}
	}
	return m, nil
}

func (m AppModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.list = m.list.MoveDown()
	case "up":
		m.list = m.list.MoveUp()
	case "tab":
		m.tab = (m.tab + 1) % tab(len(tabNames))
		m.list = NewListModel(nil, "")
		m.loading = true
		return m, m.load()
	case "right":
		if m.pages[m.tab] < m.total[m.tab] {
			m.pages[m.tab]++
			m.loading = true
			return m, m.load()
		}
	case "left":
		if m.pages[m.tab] > 1 {
			m.pages[m.tab]--
			m.loading = true
			return m, m.load()
		}
	case "enter":
		if m.tab == tabOrders && m.list.Len() > 0 {
			m.selected = m.orders[m.list.Cursor()]
			m.detail = NewListModel(orderItemRows(m.selected.Items), "This order has no items.")
			m.view = viewOrderDetail
		}
	case "L":
		if m.lang == nil {
			return m, nil
		}
		next := locale.Next(m.lang.Get(), m.supported)
		if err := m.lang.Set(next); err != nil {
			m.err = err
			return m, nil
		}
		m.notice = fmt.Sprintf("language: %s", m.lang.Get())
		m.loading = true
		return m, m.load()
	case "o":
		m.loading = true
		return m, m.logout()
	}
	return m, nil
}

// View renders the full TUI.
func (m AppModel) View() string {
	switch m.view {
	case viewSessionExpired:
		return m.renderSessionExpired()
	case viewLoggedOut:
		return m.renderLoggedOut()
	}
	if m.loading {
		return "Loading...\n"
	}
	if m.err != nil {
		return errorStyle.Render("Error: "+apiclient.ErrorText(m.err)) +
			"\n\nPress 'ctrl+r' to retry or 'q' to quit.\n"
	}
	if m.view == viewOrderDetail {
		return m.renderOrderDetail()
	}
	return m.renderList()
}

func (m AppModel) header() string {
	who := "guest"
	if m.user.Email != "" {
		who = m.user.Email
	}
	lang := locale.DefaultLang
	if m.lang != nil {
		lang = m.lang.Get()
	}
	return headerStyle.Render(fmt.Sprintf(" shopdeck | %s | lang: %s", who, lang)) + "\n"
}

func (m AppModel) tabs() string {
	out := " "
	for i, name := range tabNames {
		if tab(i) == m.tab {
			out += activeTab.Render(name)
		} else {
			out += name
		}
		out += "   "
	}
	return out + "\n"
}

func (m AppModel) renderList() string {
	status := fmt.Sprintf(" page %d/%d", m.pages[m.tab], max(m.total[m.tab], 1))
	if m.notice != "" {
		status += "   " + m.notice
	}
	footer := " ↑/↓: navigate   ←/→: page   tab: switch   L: language   ctrl+r: reload   o: logout   q: quit\n"
	if m.tab == tabOrders {
		footer = " ↑/↓: navigate   enter: items   ←/→: page   tab: switch   L: language   o: logout   q: quit\n"
	}
	return m.header() + separator + m.tabs() + separator + m.list.View() + separator + status + "\n" + separator + footer
}

func (m AppModel) renderOrderDetail() string {
	title := fmt.Sprintf(" Order #%s  %s  %s\n", m.selected.ID, m.selected.Status, formatPrice(m.selected.Total))
	footer := " ↑/↓: navigate   esc: back   q: quit\n"
	return m.header() + separator + title + separator + m.detail.View() + separator + footer
}

func (m AppModel) renderSessionExpired() string {
	body := "\n " + apiclient.SessionExpiredMessage + ".\n\n" +
		" Run 'shopdeck login <email>' and start shopdeck again.\n\n"
	footer := " ctrl+r: retry   q: quit\n"
	return headerStyle.Render(" shopdeck | session expired") + "\n" + separator + body + separator + footer
}

func (m AppModel) renderLoggedOut() string {
	body := "\n Logged out.\n\n"
	if m.err != nil {
		body = fmt.Sprintf("\n Logged out locally. The server said: %s\n\n", apiclient.ErrorText(m.err))
	}
	return headerStyle.Render(" shopdeck") + "\n" + separator + body + separator + " q: quit\n"
}

// Run starts the Bubbletea program and forwards session signals into it.
func Run(m AppModel, b *session.Broadcaster) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	unsubscribe := b.Subscribe(session.SignalRefreshFailed, func(session.Signal) {
		p.Send(SessionExpiredMsg{})
	})
	defer unsubscribe()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("shopdeck error: %w", err)
	}
	return nil
}
