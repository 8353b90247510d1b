package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

func TestViewerFromCtx(t *testing.T) {
	g := NewWithT(t)
	g.Expect(ViewerFromCtx(context.Background())).To(BeNil())

	id := uuid.New()
	ctx := WithUser(context.Background(), User{ID: id, Role: RoleLearner})
	viewer := ViewerFromCtx(ctx)
	g.Expect(viewer).NotTo(BeNil())
	g.Expect(*viewer).To(Equal(id))

	u, ok := UserFromCtx(ctx)
	g.Expect(ok).To(BeTrue())
	g.Expect(u.Role).To(Equal(RoleLearner))
}
