package docs

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	g := NewWithT(t)

	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	g.Expect(err).NotTo(HaveOccurred())

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	g.Expect(json.Unmarshal([]byte(raw), &doc)).To(Succeed())
	g.Expect(doc.Info.Title).To(Equal("eng-community API"))
	g.Expect(doc.Paths["/v1/votes"]).To(HaveKey("post"))
	g.Expect(doc.Paths["/v1/votes/{type}/{id}"]).To(HaveKey("delete"))
	g.Expect(doc.Paths["/v1/media"]).To(HaveKey("delete"))
	g.Expect(doc.Definitions).To(HaveKey("domain.APIEnvelope"))
}
