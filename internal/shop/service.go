// Package shop exposes the storefront API calls used by the terminal UI.
package shop

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/waabox/shopdeck/internal/apiclient"
	"github.com/waabox/shopdeck/internal/domain"
	"github.com/waabox/shopdeck/internal/session"
)

const defaultPageSize = 10

// CookieKeeper persists the session cookies.
type CookieKeeper interface {
	Save() error
	Clear() error
}

// Service performs storefront calls through the authenticated client.
type Service struct {
	client    *apiclient.Client
	state     *session.State
	publisher apiclient.Publisher
	cookies   CookieKeeper
	log       *zap.Logger
}

// NewService creates a Service. cookies and log may be nil.
func NewService(client *apiclient.Client, state *session.State, publisher apiclient.Publisher, cookies CookieKeeper, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		client:    client,
		state:     state,
		publisher: publisher,
		cookies:   cookies,
		log:       log,
	}
}

// ProductQuery filters the catalog listing.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

func (q ProductQuery) values() url.Values {
	v := pageValues(q.Page, q.Limit)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	return v
}

func pageValues(page, limit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

// Login authenticates with email and password. The API answers with session
// cookies and the user profile.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	resp, err := s.client.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("logging in: %w", err)
	}
	var body struct {
		User domain.User `json:"user"`
	}
	if err := resp.Decode(&body); err != nil {
		return domain.User{}, err
	}
	s.state.Login(body.User)
	s.saveCookies()
	return body.User, nil
}

// Logout ends the session on the server and locally. Local state is always
// cleared and auth:logout published, even when the server call fails.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Post(ctx, "/auth/logout", nil)
	if s.cookies != nil {
		if clearErr := s.cookies.Clear(); clearErr != nil {
			s.log.Warn("could not clear session cookies", zap.Error(clearErr))
		}
	}
	s.state.Clear()
	s.publisher.Publish(session.SignalLogout)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Me fetches the authenticated profile and caches it in the session state.
func (s *Service) Me(ctx context.Context) (domain.User, error) {
	resp, err := s.client.Get(ctx, "/users/me", nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetching profile: %w", err)
	}
	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return domain.User{}, err
	}
	s.state.Login(user)
	return user, nil
}

// Products lists the catalog.
func (s *Service) Products(ctx context.Context, q ProductQuery) (domain.Page[domain.Product], error) {
	return getPage[domain.Product](ctx, s.client, "/products", q.values())
}

// Categories lists every catalog category.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := s.client.Get(ctx, "/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching /categories: %w", err)
	}
	var categories []domain.Category
	if err := resp.Decode(&categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Cart returns one page of the user's cart.
func (s *Service) Cart(ctx context.Context, page int) (domain.Page[domain.CartItem], error) {
	return getPage[domain.CartItem](ctx, s.client, "/cart", pageValues(page, defaultPageSize))
}

// Orders returns one page of the user's order history.
func (s *Service) Orders(ctx context.Context, page int) (domain.Page[domain.Order], error) {
	return getPage[domain.Order](ctx, s.client, "/orders", pageValues(page, defaultPageSize))
}

// SaveCookies persists the current session cookies. Used as the client's refresh hook.
func (s *Service) SaveCookies() {
	s.saveCookies()
}

func (s *Service) saveCookies() {
	if s.cookies == nil {
		return
	}
	if err := s.cookies.Save(); err != nil {
		s.log.Warn("could not save session cookies", zap.Error(err))
	}
}

func getPage[T any](ctx context.Context, c *apiclient.Client, path string, query url.Values) (domain.Page[T], error) {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("fetching %s: %w", path, err)
	}
	var page domain.Page[T]
	if err := resp.Decode(&page); err != nil {
		return domain.Page[T]{}, err
	}
	return page, nil
}
