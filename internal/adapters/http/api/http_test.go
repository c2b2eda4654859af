package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexberlino/atp/internal/adapters/http/api"
	"github.com/alexberlino/atp/internal/adapters/repository"
	"github.com/alexberlino/atp/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockReader is an in-memory repository.Reader.
type mockReader struct {
	entries   []model.Entry
	updatedAt time.Time
	err       error
}

func (m *mockReader) Rank(_ context.Context, rank int) (model.Entry, error) {
	if m.err != nil {
		return model.Entry{}, m.err
	}
	for _, e := range m.entries {
		if e.Rank == rank {
			return e, nil
		}
	}
	return model.Entry{}, repository.ErrNotFound
}

func (m *mockReader) TopN(_ context.Context, n int) ([]model.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.entries) {
		n = len(m.entries)
	}
	return m.entries[:n], nil
}

func (m *mockReader) ByCountry(_ context.Context, country string) ([]model.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Entry{}
	for _, e := range m.entries {
		if strings.EqualFold(e.Country, country) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockReader) Count(context.Context) int { return len(m.entries) }

func (m *mockReader) UpdatedAt(context.Context) (time.Time, bool) {
	return m.updatedAt, !m.updatedAt.IsZero()
}

func sampleReader() *mockReader {
	return &mockReader{
		entries: []model.Entry{
			{Rank: 1, Name: "Jannik Sinner", Age: 23, Country: "ITA", Points: 11830, Change: model.IntPtr(0)},
			{Rank: 2, Name: "Alexander Zverev", Age: 27, Country: "GER", Points: 7915},
			{Rank: 3, Name: "Carlos Alcaraz", Age: 21, Country: "ESP", Points: 7010, Change: model.IntPtr(-1)},
			{Rank: 4, Name: "Lorenzo Musetti", Age: 22, Country: "ITA", Points: 3900, Change: model.IntPtr(2)},
		},
		updatedAt: time.Date(2025, 1, 6, 8, 30, 0, 0, time.UTC),
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server registered on a mux", t, func() {
		mux := http.NewServeMux()
		api.NewServer(sampleReader(), 100).Register(context.Background(), mux)

		for _, path := range []string{"/healthz", "/metrics", "/stats", "/leaderboard", "/rank/1", "/players/ITA"} {
			Convey("Then "+path+" is routed", func() {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		}

		Convey("Then /metrics exposes the http request counter", func() {
			mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then error responses are counted under the handler's code", func() {
			for _, path := range []string{"/rank/99", "/players/it", "/leaderboard?limit=x"} {
				mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body := w.Body.String()

			So(errorSeries(body, "rank", "not_found", "medium"), ShouldBeTrue)
			So(errorSeries(body, "players", "bad_request", "medium"), ShouldBeTrue)
			So(errorSeries(body, "leaderboard", "bad_request", "medium"), ShouldBeTrue)
			So(errorSeries(body, "rank", "internal_error", "high"), ShouldBeFalse)
		})

		Convey("Then a failing reader is counted as a high severity internal_error", func() {
			failing := http.NewServeMux()
			api.NewServer(&mockReader{err: fmt.Errorf("disk error")}, 10).Register(context.Background(), failing)
			failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/players/ESP", nil))

			w := httptest.NewRecorder()
			failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(errorSeries(w.Body.String(), "players", "internal_error", "high"), ShouldBeTrue)
		})
	})
}

// errorSeries reports whether the exposition text holds an http_errors_total
// sample with the given labels.
func errorSeries(exposition, endpoint, code, severity string) bool {
	for _, line := range strings.Split(exposition, "\n") {
		if !strings.Contains(line, "http_errors_total{") {
			continue
		}
		if strings.Contains(line, `endpoint="`+endpoint+`"`) &&
			strings.Contains(line, `error_type="`+code+`"`) &&
			strings.Contains(line, `severity="`+severity+`"`) {
			return true
		}
	}
	return false
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		reader := sampleReader()
		handler := api.NewLeaderboardHandler(reader, 3)

		Convey("When requesting top N entries", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, req)

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []model.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 2)
				So(response[0].Name, ShouldEqual, "Jannik Sinner")
				So(response[1].Change, ShouldBeNil)
			})
		})

		Convey("When no limit is specified", func() {
			reader.entries = append(reader.entries, reader.entries...)
			handler = api.NewLeaderboardHandler(reader, 100)
			req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, req)

			Convey("Then it should return at most ten entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []model.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 8)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, q := range []string{"abc", "0", "-3"} {
				w := httptest.NewRecorder()
				handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit="+q, nil))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=4", nil))

			Convey("Then it should cap the result at the maximum", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []model.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 3)
				So(response[2].Name, ShouldEqual, "Carlos Alcaraz")
			})
		})

		Convey("When the reader fails", func() {
			reader.err = fmt.Errorf("disk error")
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=1", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the method is not GET", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodPost, "/leaderboard", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		reader := sampleReader()
		handler := api.NewRankHandler(reader)

		Convey("When requesting an existing rank", func() {
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/3", nil))

			Convey("Then it should return the entry", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var response model.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Name, ShouldEqual, "Carlos Alcaraz")
				So(*response.Change, ShouldEqual, -1)
			})
		})

		Convey("When requesting a missing rank", func() {
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/99", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the rank is not a positive integer", func() {
			for _, p := range []string{"/rank/abc", "/rank/0", "/rank/"} {
				w := httptest.NewRecorder()
				handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, p, nil))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the reader fails", func() {
			reader.err = fmt.Errorf("disk error")
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/1", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestPlayersHandler_HandleGetPlayers(t *testing.T) {
	Convey("Given a players handler", t, func() {
		handler := api.NewPlayersHandler(sampleReader())

		Convey("When listing a country", func() {
			w := httptest.NewRecorder()
			handler.HandleGetPlayers(w, httptest.NewRequest(http.MethodGet, "/players/ita", nil))

			Convey("Then it should return that country's players in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []model.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 2)
				So(response[0].Rank, ShouldEqual, 1)
				So(response[1].Rank, ShouldEqual, 4)
			})
		})

		Convey("When the country has no players", func() {
			w := httptest.NewRecorder()
			handler.HandleGetPlayers(w, httptest.NewRequest(http.MethodGet, "/players/SUI", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("When the code is malformed", func() {
			w := httptest.NewRecorder()
			handler.HandleGetPlayers(w, httptest.NewRequest(http.MethodGet, "/players/ITALY", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When checking health", func() {
			w := httptest.NewRecorder()
			handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it should report ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler over a dataset", t, func() {
		reader := sampleReader()
		handler := api.NewStatsHandler(api.NewDatasetStats(reader))

		Convey("When requesting stats", func() {
			w := httptest.NewRecorder()
			handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then it should report count, update time and leader", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body["entries"], ShouldEqual, 4.0)
				So(body["last_updated"], ShouldEqual, "2025-01-06T08:30:00Z")
				So(body["leader"].(map[string]any)["name"], ShouldEqual, "Jannik Sinner")
			})
		})

		Convey("When the dataset is empty", func() {
			reader.entries = nil
			reader.updatedAt = time.Time{}
			w := httptest.NewRecorder()
			handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			var body map[string]any
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body["entries"], ShouldEqual, 0.0)
			So(body, ShouldNotContainKey, "last_updated")
			So(body, ShouldNotContainKey, "leader")
		})
	})
}
