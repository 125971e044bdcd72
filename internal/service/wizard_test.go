package service

import (
	"context"
	"testing"

	"ruralmatch/internal/model"
	"ruralmatch/pkg/geocode"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wizardDeps struct {
	geocoder *fakeGeocoder
	writer   *fakeWriter
	images   *fakeImageStore
}

func newTestWizard() (*IntakeWizard, *wizardDeps) {
	deps := &wizardDeps{
		geocoder: &fakeGeocoder{resp: &geocode.Response{
			Places: []geocode.Place{place("Fazenda Boa Vista", "Zona Rural, Uberaba - MG, 38000-000", -19.7483, -47.9319)},
		}},
		writer: &fakeWriter{nextID: 100},
		images: &fakeImageStore{},
	}
	w := NewIntakeWizard(NewAddressValidator(deps.geocoder), deps.writer, deps.images, 2)
	return w, deps
}

func answer(t *testing.T, w *IntakeWizard, raw string) AnswerResult {
	t.Helper()
	res := w.SubmitAnswer(context.Background(), raw)
	require.True(t, res.Accepted, "answer %q rejected: %s", raw, res.Error)
	return res
}

// completeWizard answers every field and leaves the wizard confirming.
func completeWizard(t *testing.T, w *IntakeWizard) {
	t.Helper()
	answer(t, w, "Fazenda Boa Vista")
	answer(t, w, "Zona Rural, Uberaba MG")
	answer(t, w, "pecuária, pronto")
	answer(t, w, "350 hectares")
	answer(t, w, "venda")
	answer(t, w, "R$ 2.500.000,00")
	answer(t, w, "rio e nascente")
	answer(t, w, "pronto")
	answer(t, w, "1 pronto")
	answer(t, w, "pular")
	answer(t, w, "Matrícula e CAR em dia")
	answer(t, w, "curral, galpão, pronto")
	require.True(t, w.Confirming())
}

func images(names ...string) []model.ImageFile {
	files := make([]model.ImageFile, len(names))
	for i, n := range names {
		files[i] = model.ImageFile{Name: n, ContentType: "image/jpeg", Data: []byte("jpeg")}
	}
	return files
}

func TestWizard_FirstPrompt(t *testing.T) {
	w, _ := newTestWizard()
	p := w.CurrentPrompt()
	assert.Equal(t, "title", p.Field)
	assert.False(t, p.Mandatory)
	assert.NotContains(t, p.Text, "(obrigatório)")
	assert.False(t, p.Confirming)
}

func TestWizard_CollectsDraft(t *testing.T) {
	w, deps := newTestWizard()
	completeWizard(t, w)

	d := w.Draft()
	assert.Equal(t, "Fazenda Boa Vista", d.Title)
	assert.Equal(t, "-19.748300,-47.931900", d.Coordinates)
	assert.Equal(t, "Uberaba", d.City)
	assert.Equal(t, "MG", d.State)
	assert.Equal(t, []string{"Livestock"}, d.Purposes)
	require.NotNil(t, d.AreaHectares)
	assert.InDelta(t, 350, *d.AreaHectares, 0.001)
	assert.Equal(t, model.OfferSale, d.OfferType)
	assert.Equal(t, int64(2500000), d.PriceValue)
	assert.Equal(t, "R$ 2.500.000", d.Price)
	assert.Equal(t, []string{"Rio", "Nascente"}, d.WaterSources)
	assert.Equal(t, []string{"Rede elétrica"}, d.Energy)
	assert.Empty(t, d.SoilTypes)
	assert.Equal(t, "Matrícula e CAR em dia", d.Documentation)
	assert.Equal(t, []string{"Curral", "Galpão"}, d.Structures)
	assert.Equal(t, 1, deps.geocoder.calls)

	p := w.CurrentPrompt()
	assert.True(t, p.Confirming)
	assert.Contains(t, p.Text, "Fontes de água: Rio, Nascente")
	assert.Contains(t, p.Text, "Anexe ao menos uma imagem")
}

func TestWizard_MandatoryFieldMarker(t *testing.T) {
	w, _ := newTestWizard()
	answer(t, w, "Fazenda Boa Vista")
	answer(t, w, "Zona Rural, Uberaba MG")
	answer(t, w, "pular")
	answer(t, w, "pular")
	answer(t, w, "pular")
	answer(t, w, "pular")

	p := w.CurrentPrompt()
	assert.Equal(t, "water_source", p.Field)
	assert.True(t, p.Mandatory)
	assert.Contains(t, p.Text, "(obrigatório)")
	assert.Contains(t, p.Text, "1. Rio")
	assert.NotContains(t, p.Text, "pular")
}

func TestWizard_MandatoryMultiChoiceRefusesEmpty(t *testing.T) {
	w, _ := newTestWizard()
	answer(t, w, "Fazenda Boa Vista")
	answer(t, w, "Zona Rural, Uberaba MG")
	for i := 0; i < 4; i++ {
		answer(t, w, "pular")
	}

	res := w.SubmitAnswer(context.Background(), "pronto")
	assert.False(t, res.Accepted)
	assert.Equal(t, "water_source", res.Field)
	assert.Contains(t, res.Error, "selecione ao menos uma opção")

	res = w.SubmitAnswer(context.Background(), "pular")
	assert.False(t, res.Accepted)
	assert.Equal(t, "water_source", res.Prompt.Field)
}

func TestWizard_RejectedAnswersDoNotAdvance(t *testing.T) {
	w, _ := newTestWizard()
	answer(t, w, "Fazenda Boa Vista")
	answer(t, w, "Zona Rural, Uberaba MG")
	answer(t, w, "pecuária pronto")

	res := w.SubmitAnswer(context.Background(), "bastante")
	assert.False(t, res.Accepted)
	assert.Equal(t, "area", res.Field)
	assert.Equal(t, "area", w.CurrentPrompt().Field)

	answer(t, w, "cem hectares")
	res = w.SubmitAnswer(context.Background(), "talvez")
	assert.False(t, res.Accepted)
	assert.Equal(t, "offer_type", w.CurrentPrompt().Field)

	answer(t, w, "2")
	assert.Equal(t, model.OfferLease, w.Draft().OfferType)

	res = w.SubmitAnswer(context.Background(), "sob consulta")
	assert.False(t, res.Accepted)
	assert.Equal(t, "price", res.Field)
}

func TestWizard_AddressFailureKeepsCursor(t *testing.T) {
	w, deps := newTestWizard()
	answer(t, w, "Fazenda Boa Vista")

	deps.geocoder.err = eris.New("geocode: place search: i/o timeout")
	res := w.SubmitAnswer(context.Background(), "Zona Rural, Uberaba MG")
	assert.False(t, res.Accepted)
	assert.Equal(t, "address", res.Field)
	assert.Contains(t, res.Error, msgAddressUnreachable)
	assert.Equal(t, "address", w.CurrentPrompt().Field)
	assert.Empty(t, w.Draft().Coordinates)

	res = w.SubmitAnswer(context.Background(), "pular")
	assert.False(t, res.Accepted, "address cannot be skipped")

	deps.geocoder.err = nil
	deps.geocoder.resp = &geocode.Response{}
	res = w.SubmitAnswer(context.Background(), "lugar nenhum")
	assert.False(t, res.Accepted)
	assert.Contains(t, res.Error, msgAddressNotFound)

	deps.geocoder.resp = &geocode.Response{Places: []geocode.Place{place("", "Londrina, PR", -23.3, -51.16)}}
	res = w.SubmitAnswer(context.Background(), "Londrina PR")
	assert.True(t, res.Accepted)
	assert.Equal(t, "purpose", res.Prompt.Field)
	assert.Equal(t, "Londrina", w.Draft().City)
}

func TestWizard_MultiChoiceAccumulates(t *testing.T) {
	w, _ := newTestWizard()
	answer(t, w, "Fazenda Boa Vista")
	answer(t, w, "Zona Rural, Uberaba MG")

	res := answer(t, w, "gado")
	assert.False(t, res.Advanced)
	res = answer(t, w, "3, 1")
	assert.False(t, res.Advanced)
	assert.Equal(t, []string{"Pecuária", "Leiteira"}, res.Prompt.Selected)

	res = answer(t, w, "gado, pronto")
	assert.True(t, res.Advanced)
	assert.Equal(t, []string{"Livestock", "Dairy"}, w.Draft().Purposes)

	answer(t, w, "350 hectares")
	answer(t, w, "venda")
	answer(t, w, "R$ 2.500.000,00")

	// A count next to a known word is not an option number.
	res = answer(t, w, "tem 2 nascentes")
	assert.False(t, res.Advanced)
	assert.Equal(t, []string{"Nascente"}, w.Draft().WaterSources)

	res = answer(t, w, "2")
	assert.False(t, res.Advanced)
	assert.Equal(t, []string{"Nascente", "Córrego"}, w.Draft().WaterSources)
}

func TestWizard_ZeroImagesFailsWithoutWrites(t *testing.T) {
	w, deps := newTestWizard()
	completeWizard(t, w)

	res := w.ConfirmAndCommit(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ImagesField, res.Field)
	assert.Contains(t, res.Error, "imagem")
	assert.Equal(t, 0, deps.writer.createCalls)
	assert.Equal(t, 0, deps.writer.detailCalls)
	assert.Empty(t, deps.images.uploads)
	assert.True(t, w.Confirming())
}

func TestWizard_CommitBeforeConfirming(t *testing.T) {
	w, deps := newTestWizard()
	res := w.ConfirmAndCommit(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ErrNotConfirming.Error(), res.Error)
	assert.Equal(t, 0, deps.writer.createCalls)
}

func TestWizard_CommitSuccess(t *testing.T) {
	w, deps := newTestWizard()
	completeWizard(t, w)

	n, err := w.AttachImages(images("sede.jpg", "curral.jpg", "rio.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res := w.ConfirmAndCommit(context.Background())
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.ListingID)
	assert.Equal(t, int64(101), *res.ListingID)
	assert.Len(t, res.ImageURLs, 3)
	assert.Empty(t, res.Warnings)

	require.Len(t, deps.writer.bases, 1)
	base := deps.writer.bases[0]
	assert.Equal(t, "Fazenda Boa Vista", base.Title)
	assert.Equal(t, "Fazenda", base.Category)
	assert.Equal(t, "R$ 2.500.000", base.Price)
	assert.Equal(t, model.StatusActive, base.Status)

	require.Len(t, deps.writer.details, 1)
	detail := deps.writer.details[0]
	assert.Equal(t, int64(101), detail.ListingID)
	assert.Equal(t, "MG", detail.State)
	assert.Equal(t, model.JSONArray{"Curral", "Galpão"}, detail.Structures)

	// the wizard starts over for the next listing
	assert.False(t, w.Confirming())
	assert.Equal(t, "title", w.CurrentPrompt().Field)
	assert.Empty(t, w.Draft().Title)
}

func TestWizard_AllUploadsFailIsStillSuccess(t *testing.T) {
	w, deps := newTestWizard()
	deps.images.failAll = true
	completeWizard(t, w)
	_, err := w.AttachImages(images("a.jpg", "b.jpg"))
	require.NoError(t, err)

	res := w.ConfirmAndCommit(context.Background())
	assert.True(t, res.Success)
	assert.NotNil(t, res.ListingID)
	assert.Empty(t, res.ImageURLs)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 1, deps.writer.createCalls)
}

func TestWizard_PartialUploadFailure(t *testing.T) {
	w, deps := newTestWizard()
	deps.images.failName = "b.jpg"
	completeWizard(t, w)
	_, err := w.AttachImages(images("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	res := w.ConfirmAndCommit(context.Background())
	assert.True(t, res.Success)
	assert.Len(t, res.ImageURLs, 2)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "b.jpg")
}

func TestWizard_BaseRecordFailurePreservesDraft(t *testing.T) {
	w, deps := newTestWizard()
	deps.writer.createErr = eris.New("catalog: insert listing")
	completeWizard(t, w)
	_, err := w.AttachImages(images("a.jpg"))
	require.NoError(t, err)
	before := w.Draft()

	res := w.ConfirmAndCommit(context.Background())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.ListingID)
	assert.Equal(t, 0, deps.writer.detailCalls)
	assert.Empty(t, deps.images.uploads)
	assert.True(t, w.Confirming())
	assert.Equal(t, before, w.Draft())

	deps.writer.createErr = nil
	res = w.ConfirmAndCommit(context.Background())
	assert.True(t, res.Success)
}

func TestWizard_DetailFailureRetryReusesListing(t *testing.T) {
	w, deps := newTestWizard()
	deps.writer.detailErr = eris.New("catalog: insert detail")
	completeWizard(t, w)
	_, err := w.AttachImages(images("a.jpg"))
	require.NoError(t, err)

	res := w.ConfirmAndCommit(context.Background())
	assert.False(t, res.Success)
	require.NotNil(t, res.ListingID)
	assert.Empty(t, deps.images.uploads)

	deps.writer.detailErr = nil
	res = w.ConfirmAndCommit(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, int64(101), *res.ListingID)
	assert.Equal(t, 1, deps.writer.createCalls)
	assert.Equal(t, 2, deps.writer.detailCalls)
}

func TestWizard_AttachImagesRejectsNonImages(t *testing.T) {
	w, _ := newTestWizard()
	n, err := w.AttachImages([]model.ImageFile{{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}})
	require.Error(t, err)
	assert.Equal(t, 0, n)

	_, err = w.AttachImages([]model.ImageFile{{Name: "vazio.jpg", ContentType: "image/jpeg"}})
	require.Error(t, err)
}

func TestWizard_AnswerWhileConfirming(t *testing.T) {
	w, _ := newTestWizard()
	completeWizard(t, w)

	res := w.SubmitAnswer(context.Background(), "mais uma coisa")
	assert.False(t, res.Accepted)
	assert.True(t, res.Prompt.Confirming)
	assert.True(t, w.Confirming())
}
