package meetings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/civicarchive/councilcast/internal/api/util"
	"github.com/civicarchive/councilcast/internal/history"
	"github.com/civicarchive/councilcast/internal/http/granicus"
	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/labstack/echo/v4"
)

// MinSimilarity is the lowest title similarity a search result
// may have.
const MinSimilarity = 0.75

type (
	Store interface {
		FetchMeetings(ctx context.Context) ([]meeting.Record, error)
		UploadsForMeeting(record meeting.Record) ([]*history.Upload, error)
	}

	Dto struct {
		Index      int      `json:"index"`
		Title      string   `json:"title"`
		Date       string   `json:"date"`
		Time       string   `json:"time"`
		Video      string   `json:"video"`
		Agenda     string   `json:"agenda,omitempty"`
		Minutes    string   `json:"minutes,omitempty"`
		Similarity float64  `json:"similarity"`
		Uploads    []string `json:"uploads"`
	}

	Controller struct {
		store Store
	}
)

func New(store Store) *Controller {
	return &Controller{store: store}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
}

func (controller *Controller) list(ec echo.Context) error {
	records, err := controller.store.FetchMeetings(ec.Request().Context())
	if err != nil {
		var fetchErr *granicus.FetchError
		if errors.As(err, &fetchErr) {
			return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Meeting listing unavailable: %s", err))
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	matches := meeting.Search(records, ec.QueryParam("q"), MinSimilarity)
	dtos := util.ApplyConversion(matches, func(match meeting.Match) Dto {
		return controller.newDto(match)
	})

	return ec.JSON(http.StatusOK, dtos)
}

func (controller *Controller) newDto(match meeting.Match) Dto {
	uploaded := make([]string, 0)
	if uploads, err := controller.store.UploadsForMeeting(match.Record); err == nil {
		for _, upload := range uploads {
			uploaded = append(uploaded, upload.VideoID)
		}
	}

	return Dto{
		Index:      match.Index,
		Title:      match.Record.Title,
		Date:       match.Record.Date,
		Time:       match.Record.Time,
		Video:      match.Record.VideoURL,
		Agenda:     match.Record.AgendaURL,
		Minutes:    match.Record.MinutesURL,
		Similarity: match.Similarity,
		Uploads:    uploaded,
	}
}
