package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/internal/render"
	"github.com/gcbaptista/candidate-search/model"
	"github.com/gcbaptista/candidate-search/services"
)

// PartyView is one party of the grouped response. Total counts every
// matching candidate even when Candidates is truncated.
type PartyView struct {
	Name       string            `json:"name"`
	Total      int               `json:"total"`
	Candidates []model.Candidate `json:"candidates"`
}

// AdminUnitView is one administrative unit of the grouped response
type AdminUnitView struct {
	Name    string      `json:"name"`
	Parties []PartyView `json:"parties"`
}

// DistrictView is one district of the grouped response
type DistrictView struct {
	Name       string          `json:"name"`
	AdminUnits []AdminUnitView `json:"admin_units"`
}

// SearchResponse is the body of a successful search
type SearchResponse struct {
	Query      string         `json:"query"`
	Total      int            `json:"total"`
	Searched   bool           `json:"searched"`
	Message    string         `json:"message,omitempty"`
	Districts  []DistrictView `json:"districts"`
	PerParty   int            `json:"per_party"`
	CorpusSize int            `json:"corpus_size"`
	Took       int64          `json:"took"`
	QueryId    string         `json:"query_id"`
}

// SearchHandler runs the query in ?q= and returns the grouped candidates.
// Query Params: q, per_party (0 = all), sort_keys
func (api *API) SearchHandler(c *gin.Context) {
	var params SearchParams
	if result := ValidateQueryBinding(c, &params); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateSearchParams(&params, api.perParty); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := api.searcher.Search(services.SearchRequest{Query: params.Query, SortKeys: params.SortKeys})
	if err != nil {
		SendDomainError(c, "search", err)
		return
	}

	response := SearchResponse{
		Query:      result.Query,
		Total:      result.Total,
		Searched:   result.Searched,
		Districts:  truncate(result.Groups, *params.PerParty),
		PerParty:   *params.PerParty,
		CorpusSize: result.CorpusSize,
		Took:       result.Took,
		QueryId:    result.QueryId,
	}
	if result.Total == 0 {
		response.Message = render.EmptyMessage(params.Query)
	}

	c.JSON(http.StatusOK, response)
}

// truncate converts the index to its JSON view, keeping at most perParty
// candidates per party (0 keeps all).
func truncate(idx *model.GroupedIndex, perParty int) []DistrictView {
	districts := make([]DistrictView, 0)
	if idx == nil {
		return districts
	}
	for _, d := range idx.Districts {
		dv := DistrictView{Name: d.Name, AdminUnits: make([]AdminUnitView, 0, len(d.AdminUnits))}
		for _, a := range d.AdminUnits {
			av := AdminUnitView{Name: a.Name, Parties: make([]PartyView, 0, len(a.Parties))}
			for _, p := range a.Parties {
				shown := p.Candidates
				if perParty > 0 && len(shown) > perParty {
					shown = shown[:perParty]
				}
				av.Parties = append(av.Parties, PartyView{Name: p.Name, Total: len(p.Candidates), Candidates: shown})
			}
			dv.AdminUnits = append(dv.AdminUnits, av)
		}
		districts = append(districts, dv)
	}
	return districts
}

// CountHandler returns the size of the loaded corpus
func (api *API) CountHandler(c *gin.Context) {
	status := api.searcher.Status()
	if !status.Loaded {
		SendError(c, http.StatusServiceUnavailable, ErrorCodeCorpusUnavailable, "Candidate data has not been loaded yet")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     status.CorpusSize,
		"loaded_at": status.LoadedAt,
		"source":    status.Source,
	})
}

// CandidateDetailsHandler proxies a candidate's detail document from object storage.
// Query Params: file (e.g. "CANDIDATES/ANTI KALJUMÄE.json")
func (api *API) CandidateDetailsHandler(c *gin.Context) {
	if api.details == nil {
		SendNotImplementedError(c, "Candidate details")
		return
	}

	fileName := c.Query("file")
	if result := ValidateCandidateFile(fileName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	details, err := api.details.FetchCandidateDetails(c.Request.Context(), fileName)
	if err != nil {
		api.logger.Warn("candidate details fetch failed", zap.String("file", fileName), zap.Error(err))
		SendDomainError(c, "fetch candidate details", err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", details)
}

// RefreshCorpusHandler starts a background refetch of the candidate index
func (api *API) RefreshCorpusHandler(c *gin.Context) {
	if api.refresher == nil {
		SendNotImplementedError(c, "Corpus refresh")
		return
	}

	jobID, started, err := api.refresher.StartRefresh("api")
	if err != nil {
		SendJobExecutionError(c, "corpus refresh", err)
		return
	}

	message := "Corpus refresh started"
	if !started {
		message = "Corpus refresh already in progress"
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": message,
		"job_id":  jobID,
	})
}
