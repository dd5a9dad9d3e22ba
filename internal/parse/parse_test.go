package parse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parserFor(status int, body string) (*HTTPParser, func()) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return &HTTPParser{URL: srv.URL}, srv.Close
}

func TestParse_Success(t *testing.T) {
	p, done := parserFor(200, `{
		"titulo": "Apto 71",
		"endereco": "Av. Paulista, 1000",
		"preco": 420000,
		"quartos": 2,
		"tipoImovel": "apartamento"
	}`)
	defer done()

	data, err := p.Parse(context.Background(), "some pasted ad text")
	require.NoError(t, err)
	assert.Equal(t, "Apto 71", data.Title)
	require.NotNil(t, data.Price)
	assert.Equal(t, 420000.0, *data.Price)
	require.NotNil(t, data.PropertyType)
	assert.Equal(t, "apartamento", *data.PropertyType)
}

func TestParse_Unauthorized(t *testing.T) {
	p, done := parserFor(401, `{}`)
	defer done()
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParse_RateLimited(t *testing.T) {
	p, done := parserFor(429, `{}`)
	defer done()
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestParse_ServiceUnavailable(t *testing.T) {
	p, done := parserFor(503, `{}`)
	defer done()
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestParse_ServiceUnavailableOnTransportError(t *testing.T) {
	p, done := parserFor(200, `{}`)
	done() // server already closed: connection refused
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestParse_MalformedResponse(t *testing.T) {
	p, done := parserFor(200, `not json at all`)
	defer done()
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParse_MissingRequiredFieldsIsMalformed(t *testing.T) {
	p, done := parserFor(200, `{"titulo": "only a title"}`)
	defer done()
	_, err := p.Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParse_ConcurrentCallsOnZeroValueHTTP(t *testing.T) {
	p, done := parserFor(200, `{"titulo": "Casa", "endereco": "Rua 1"}`)
	defer done()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Parse(context.Background(), "text")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Nil(t, p.HTTP)
}
