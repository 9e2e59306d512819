package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

const searchXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE eSearchResult PUBLIC "-//NLM//DTD esearch 20060628//EN" "https://eutils.ncbi.nlm.nih.gov/eutils/dtd/20060628/esearch.dtd">
<eSearchResult><Count>2</Count><RetMax>2</RetMax><RetStart>0</RetStart>
<IdList><Id>38012345</Id><Id>37123456</Id></IdList></eSearchResult>`

const fetchXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
<PubmedArticle>
  <MedlineCitation Status="MEDLINE" Owner="NLM">
    <PMID Version="1">37123456</PMID>
    <Article PubModel="Print">
      <ArticleTitle>Imatinib in <i>BCR-ABL</i> positive leukaemia.</ArticleTitle>
      <Abstract>
        <AbstractText Label="BACKGROUND" NlmCategory="BACKGROUND">Imatinib treats CML.</AbstractText>
        <AbstractText Label="RESULTS" NlmCategory="RESULTS">Response rates were &gt; 90%.</AbstractText>
      </Abstract>
    </Article>
  </MedlineCitation>
</PubmedArticle>
<PubmedArticle>
  <MedlineCitation>
    <PMID Version="1">38012345</PMID>
    <Article>
      <ArticleTitle>A title only record.</ArticleTitle>
    </Article>
  </MedlineCitation>
</PubmedArticle>
</PubmedArticleSet>`

// newTestClient starts a fake E-utilities server and returns a client for it.
func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1000
	}
	return NewClient(cfg), &calls
}

func TestClient_ImplementsInterface(t *testing.T) {
	var _ driven.ArticleSearcher = (*Client)(nil)
}

func TestSearch(t *testing.T) {
	var got url.Values
	client, calls := newTestClient(t, Config{APIKey: "ncbi-key"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		got = r.URL.Query()
		_, _ = w.Write([]byte(searchXML))
	})

	ids, err := client.Search(context.Background(), "imatinib AND chronic+myeloid+leukemia", driven.SearchOptions{
		MaxResults: 30,
		MinDate:    "2000/01/01",
		MaxDate:    "2025/01/01",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"38012345", "37123456"}, ids)
	assert.Equal(t, int32(1), *calls)
	assert.Equal(t, "pubmed", got.Get("db"))
	assert.Equal(t, "imatinib AND chronic myeloid leukemia", got.Get("term"))
	assert.Equal(t, "30", got.Get("retmax"))
	assert.Equal(t, "pdat", got.Get("datetype"))
	assert.Equal(t, "2000/01/01", got.Get("mindate"))
	assert.Equal(t, "2025/01/01", got.Get("maxdate"))
	assert.Equal(t, "ncbi-key", got.Get("api_key"))
}

func TestSearch_EmptyQuery(t *testing.T) {
	client, calls := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	ids, err := client.Search(context.Background(), "  ", driven.SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int32(0), *calls)
}

func TestSearch_DefaultsWithoutDates(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(searchXML))
	})

	_, err := client.Search(context.Background(), "aspirin", driven.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "30", got.Get("retmax"))
	assert.False(t, got.Has("datetype"))
	assert.False(t, got.Has("api_key"))
}

func TestSearch_NonOKIsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(status)
			})

			ids, err := client.Search(context.Background(), "aspirin", driven.SearchOptions{})

			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestSearch_RateLimitedBacksOff(t *testing.T) {
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "aspirin", driven.SearchOptions{})
	require.NoError(t, err)

	assert.False(t, client.limiter.Allow())
}

func TestSearch_ErrorPayload(t *testing.T) {
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`))
	})

	_, err := client.Search(context.Background(), "aspirin", driven.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestSearch_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<eSearchResult><IdList>`))
	})

	_, err := client.Search(context.Background(), "aspirin", driven.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestSearch_CancelledContext(t *testing.T) {
	client, calls := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchXML))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "aspirin", driven.SearchOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), *calls)
}

func TestFetch(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		got = r.URL.Query()
		_, _ = w.Write([]byte(fetchXML))
	})

	docs, err := client.Fetch(context.Background(), []string{"38012345", "37123456"})

	require.NoError(t, err)
	assert.Equal(t, "38012345,37123456", got.Get("id"))
	assert.Equal(t, "xml", got.Get("retmode"))
	require.Len(t, docs, 2)

	// Requested order, not response order
	assert.Equal(t, "38012345", docs[0].ID)
	assert.Equal(t, "A title only record.", docs[0].Title)
	assert.Empty(t, docs[0].Abstract)

	assert.Equal(t, "37123456", docs[1].ID)
	assert.Equal(t, "Imatinib in BCR-ABL positive leukaemia.", docs[1].Title)
	assert.Equal(t, "BACKGROUND: Imatinib treats CML. RESULTS: Response rates were > 90%.", docs[1].Abstract)
}

func TestFetch_EmptyIDs(t *testing.T) {
	client, calls := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	docs, err := client.Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, int32(0), *calls)
}

func TestFetch_NonOKIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	docs, err := client.Fetch(context.Background(), []string{"1"})

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFetch_MissingIDsOmitted(t *testing.T) {
	client, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fetchXML))
	})

	docs, err := client.Fetch(context.Background(), []string{"999", "37123456", "37123456"})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "37123456", docs[0].ID)
}

func TestFetch_Cache(t *testing.T) {
	var requested []string
	client, calls := newTestClient(t, Config{CacheSize: 10, CacheTTL: time.Minute}, func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(fetchXML))
	})
	ctx := context.Background()

	_, err := client.Fetch(ctx, []string{"37123456"})
	require.NoError(t, err)

	docs, err := client.Fetch(ctx, []string{"37123456", "38012345"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, int32(2), *calls)
	assert.Equal(t, []string{"37123456", "38012345"}, requested)

	docs, err = client.Fetch(ctx, []string{"38012345", "37123456"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, int32(2), *calls)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, retryAfter("5"))
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, time.Duration(0), retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
