package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/warehousekit/bindivider/internal/report"
	"github.com/warehousekit/bindivider/internal/storage"
)

// flexFloat decodes a JSON number leniently. Strings holding a number are
// accepted; anything unparseable (including null) falls back to zero silently.
// Malformed numeric input from the form layer is corrected at this boundary,
// never rejected; the stores clamp the resulting zero into range.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat(lenientFloat(data))
	return nil
}

// flexInt decodes a JSON integer with the same lenient rules as flexFloat.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	*i = flexInt(lenientFloat(data))
	return nil
}

func lenientFloat(data []byte) float64 {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

type binRequest struct {
	Name          string    `json:"name"`
	DepthMM       flexFloat `json:"depthMm"`
	HeightMM      flexFloat `json:"heightMm"`
	WidthMM       flexFloat `json:"widthMm"`
	HasLip        bool      `json:"hasLip"`
	ShelvesPerBay flexInt   `json:"shelvesPerBay"`
	BinsPerShelf  flexInt   `json:"binsPerShelf"`
	UT            flexFloat `json:"ut"`
}

func (r binRequest) fields() storage.BinFields {
	return storage.BinFields{
		Name:          r.Name,
		DepthMM:       float64(r.DepthMM),
		HeightMM:      float64(r.HeightMM),
		WidthMM:       float64(r.WidthMM),
		HasLip:        r.HasLip,
		ShelvesPerBay: int(r.ShelvesPerBay),
		BinsPerShelf:  int(r.BinsPerShelf),
		UT:            float64(r.UT),
	}
}

type groupRequest struct {
	Name          string  `json:"name"`
	Floor         string  `json:"floor"`
	Mod           string  `json:"mod"`
	Depth         string  `json:"depth"`
	StartAisle    flexInt `json:"startAisle"`
	EndAisle      flexInt `json:"endAisle"`
	BayCount      flexInt `json:"bayCount"`
	ShelvesPerBay flexInt `json:"shelvesPerBay"`
	BayDesign     string  `json:"bayDesign"`
}

func (r groupRequest) fields() storage.GroupFields {
	return storage.GroupFields{
		Name:          r.Name,
		Floor:         r.Floor,
		Mod:           r.Mod,
		Depth:         r.Depth,
		StartAisle:    int(r.StartAisle),
		EndAisle:      int(r.EndAisle),
		BayCount:      int(r.BayCount),
		ShelvesPerBay: int(r.ShelvesPerBay),
		BayDesign:     r.BayDesign,
	}
}

type assignBinsRequest struct {
	BinIDs []flexInt `json:"binIds"`
}

type binResponse struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Label         string  `json:"label"`
	DepthMM       float64 `json:"depthMm"`
	HeightMM      float64 `json:"heightMm"`
	WidthMM       float64 `json:"widthMm"`
	LipCM         float64 `json:"lipCm"`
	HasLip        bool    `json:"hasLip"`
	ShelvesPerBay int     `json:"shelvesPerBay"`
	BinsPerShelf  int     `json:"binsPerShelf"`
	UT            float64 `json:"ut"`
}

func toBinResponse(bin storage.BinDefinition) binResponse {
	return binResponse{
		ID:            bin.ID,
		Name:          bin.Name,
		Label:         report.BinLabel(bin),
		DepthMM:       bin.DepthMM,
		HeightMM:      bin.HeightMM,
		WidthMM:       bin.WidthMM,
		LipCM:         bin.LipCM,
		HasLip:        bin.HasLip,
		ShelvesPerBay: bin.ShelvesPerBay,
		BinsPerShelf:  bin.BinsPerShelf,
		UT:            bin.UT,
	}
}

func binResponses(bins []storage.BinDefinition) []binResponse {
	out := make([]binResponse, len(bins))
	for i, bin := range bins {
		out[i] = toBinResponse(bin)
	}
	return out
}

type binListResponse struct {
	Bins      []binResponse `json:"bins"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type groupResponse struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Floor         string `json:"floor"`
	Mod           string `json:"mod"`
	Depth         string `json:"depth"`
	StartAisle    int    `json:"startAisle"`
	EndAisle      int    `json:"endAisle"`
	BayCount      int    `json:"bayCount"`
	ShelvesPerBay int    `json:"shelvesPerBay"`
	BayDesign     string `json:"bayDesign"`
	BinIDs        []int  `json:"binIds"`
	Finalized     bool   `json:"finalized"`
}

func toGroupResponse(index int, group storage.Group) groupResponse {
	return groupResponse{
		Index:         index,
		Name:          group.Name,
		Floor:         group.Floor,
		Mod:           group.Mod,
		Depth:         group.Depth,
		StartAisle:    group.StartAisle,
		EndAisle:      group.EndAisle,
		BayCount:      group.BayCount,
		ShelvesPerBay: group.ShelvesPerBay,
		BayDesign:     group.BayDesign,
		BinIDs:        group.BinIDs,
		Finalized:     group.Finalized,
	}
}

func groupResponses(groups []storage.Group) []groupResponse {
	out := make([]groupResponse, len(groups))
	for i, group := range groups {
		out[i] = toGroupResponse(i, group)
	}
	return out
}

type groupListResponse struct {
	Groups []groupResponse `json:"groups"`
}

type previewRow struct {
	BinID     int     `json:"binId"`
	Label     string  `json:"label"`
	Aisles    int     `json:"aisles"`
	QtyPerBay int     `json:"qtyPerBay"`
	TotalQty  int     `json:"totalQuantity"`
	GrossCBM  float64 `json:"grossCbm"`
	NetCBM    float64 `json:"netCbm"`
	LipCM     any     `json:"lipCm"`
}

type previewResponse struct {
	Rows []previewRow `json:"rows"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
