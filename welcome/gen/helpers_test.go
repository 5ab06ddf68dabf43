package welcomerpc_test

import (
	"encoding/json"
	"net/http"
)

func decodeJSON(res *http.Response, out interface{}) error {
	return json.NewDecoder(res.Body).Decode(out)
}
