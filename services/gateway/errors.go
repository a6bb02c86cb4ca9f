package gatewaysvc

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/trezcool/masomo-console/core"
)

// normalize builds the *core.APIError of a non-2xx response.
// The body's "detail" may be a string, a list of {msg, loc} items or any other JSON value.
func normalize(status int, body []byte) error {
	apiErr := &core.APIError{Kind: core.KindRemote, StatusCode: status}

	if gjson.ValidBytes(body) {
		detail := gjson.GetBytes(body, "detail")
		switch {
		case detail.Type == gjson.String:
			apiErr.Detail = detail.String()
		case detail.IsArray():
			apiErr.Fields = detailItems(detail)
			if len(apiErr.Fields) == 0 {
				apiErr.Raw = detail.Raw
			}
		case detail.Exists() && detail.Type != gjson.Null:
			apiErr.Raw = detail.Raw
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = core.KindAuthorization
	case len(apiErr.Fields) > 0:
		apiErr.Kind = core.KindValidation
	}
	return apiErr
}

func detailItems(detail gjson.Result) []core.DetailItem {
	items := make([]core.DetailItem, 0)
	detail.ForEach(func(_, item gjson.Result) bool {
		msg := item.Get("msg")
		if !msg.Exists() {
			return true
		}
		di := core.DetailItem{Msg: msg.String()}
		for _, loc := range item.Get("loc").Array() {
			di.Loc = append(di.Loc, loc.String())
		}
		items = append(items, di)
		return true
	})
	return items
}
