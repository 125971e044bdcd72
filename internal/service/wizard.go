package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfirming is returned when a commit is attempted before every
// field has been answered.
var ErrNotConfirming = eris.New("intake: wizard is not awaiting confirmation")

// ImagesField names the image requirement in commit errors.
const ImagesField = "images"

// Option is one selectable answer of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Prompt describes what the wizard is asking for.
type Prompt struct {
	Field      string   `json:"field,omitempty"`
	Label      string   `json:"label,omitempty"`
	Text       string   `json:"text"`
	Mandatory  bool     `json:"mandatory"`
	Options    []Option `json:"options,omitempty"`
	Selected   []string `json:"selected,omitempty"`
	Confirming bool     `json:"confirming"`
}

// AnswerResult is the outcome of one submitted answer.
type AnswerResult struct {
	Accepted bool   `json:"accepted"`
	Advanced bool   `json:"advanced"`
	Field    string `json:"field,omitempty"`
	Error    string `json:"error,omitempty"`
	Prompt   Prompt `json:"prompt"`
}

// CommitResult is the outcome of confirmAndCommit.
type CommitResult struct {
	Success   bool     `json:"success"`
	ListingID *int64   `json:"listing_id,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Field     string   `json:"field,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// IntakeWizard walks a seller through the listing fields in order, then
// waits for images and confirmation.
type IntakeWizard struct {
	mu         sync.Mutex
	cursor     model.IntakeField
	confirming bool
	draft      model.ListingDraft

	addresses         *AddressValidator
	writer            ListingWriter
	images            ImageStore
	uploadConcurrency int
}

// NewIntakeWizard creates a wizard positioned at the first field.
func NewIntakeWizard(addresses *AddressValidator, writer ListingWriter, images ImageStore, uploadConcurrency int) *IntakeWizard {
	if uploadConcurrency <= 0 {
		uploadConcurrency = 4
	}
	return &IntakeWizard{
		cursor:            model.FieldTitle,
		addresses:         addresses,
		writer:            writer,
		images:            images,
		uploadConcurrency: uploadConcurrency,
	}
}

// Draft returns a copy of the draft collected so far.
func (w *IntakeWizard) Draft() model.ListingDraft {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.draft
	d.Images = append([]model.ImageFile(nil), w.draft.Images...)
	return d
}

// Confirming reports whether every field has been answered.
func (w *IntakeWizard) Confirming() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirming
}

// CurrentPrompt returns the question for the field under the cursor, or the
// summary once all fields are answered.
func (w *IntakeWizard) CurrentPrompt() Prompt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prompt()
}

func (w *IntakeWizard) prompt() Prompt {
	if w.confirming {
		return Prompt{Text: w.summary(), Confirming: true}
	}

	f := w.cursor
	p := Prompt{
		Field:     f.Key(),
		Label:     f.Label(),
		Mandatory: f.Mandatory(),
		Options:   optionsFor(f),
		Selected:  labelsFor(f, w.draft.Selections(f)),
	}

	var b strings.Builder
	b.WriteString(question(f))
	if f.Mandatory() {
		b.WriteString(" (obrigatório)")
	}
	for i, o := range p.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, o.Label)
	}
	if f.Type() == model.ValueMultiChoice {
		if len(p.Selected) > 0 {
			fmt.Fprintf(&b, "\nSelecionados: %s.", strings.Join(p.Selected, ", "))
		}
		b.WriteString("\nEscolha uma ou mais opções e diga \"pronto\" para continuar.")
	}
	if skippable(f) {
		b.WriteString("\nDiga \"pular\" para deixar em branco.")
	}
	p.Text = b.String()
	return p
}

// SubmitAnswer coerces raw for the current field. A rejected answer leaves
// the wizard unchanged; the address field blocks until the geocoding round
// trip completes.
func (w *IntakeWizard) SubmitAnswer(ctx context.Context, raw string) AnswerResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.confirming {
		return w.reject(nil, "Todas as perguntas foram respondidas. Anexe as imagens e confirme o cadastro.")
	}

	f := w.cursor
	tokens := utils.Normalize(raw)
	if skippable(f) && utils.SkipDirectives.Any(tokens) && !w.draft.Populated(f) {
		return w.advance(f)
	}

	var err error
	switch f.Type() {
	case model.ValueText:
		if f == model.FieldAddress {
			return w.submitAddress(ctx, raw)
		}
		err = w.setText(f, raw)
	case model.ValueNumber:
		err = w.setNumber(f, raw)
	case model.ValueCurrency:
		err = w.setCurrency(f, raw)
	case model.ValueSingleChoice:
		err = w.setSingleChoice(f, tokens)
	case model.ValueMultiChoice:
		return w.submitMultiChoice(f, tokens)
	}
	if err != nil {
		return w.reject(err, "")
	}
	return w.advance(f)
}

func (w *IntakeWizard) submitAddress(ctx context.Context, raw string) AnswerResult {
	result := w.addresses.Validate(ctx, raw)
	if !result.Valid {
		return w.reject(&model.FieldError{Field: model.FieldAddress, Reason: result.Message}, "")
	}
	w.draft.Address = strings.TrimSpace(raw)
	w.draft.Coordinates = result.Coordinates
	w.draft.DisplayAddress = result.DisplayAddress
	w.draft.City = result.City
	w.draft.State = result.State
	return w.advance(model.FieldAddress)
}

func (w *IntakeWizard) setText(f model.IntakeField, raw string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return &model.FieldError{Field: f, Reason: "resposta vazia"}
	}
	switch f {
	case model.FieldTitle:
		w.draft.Title = v
	case model.FieldDocumentation:
		w.draft.Documentation = v
	}
	return nil
}

func (w *IntakeWizard) setNumber(f model.IntakeField, raw string) error {
	v, ok := utils.ParseMagnitude(raw)
	if !ok || v <= 0 {
		return &model.FieldError{Field: f, Reason: "informe um número maior que zero, por exemplo 120"}
	}
	w.draft.AreaHectares = &v
	return nil
}

func (w *IntakeWizard) setCurrency(f model.IntakeField, raw string) error {
	v, ok := utils.ParseCurrencyAnswer(raw)
	if !ok {
		return &model.FieldError{Field: f, Reason: "informe um valor em reais, por exemplo 1.500.000"}
	}
	w.draft.PriceValue = v
	w.draft.Price = utils.FormatCurrency(v)
	return nil
}

func (w *IntakeWizard) setSingleChoice(f model.IntakeField, tokens []string) error {
	values := matchOptions(f, tokens)
	if len(values) == 0 {
		return &model.FieldError{Field: f, Reason: "opção não reconhecida"}
	}
	w.draft.OfferType = model.OfferType(values[len(values)-1])
	return nil
}

// submitMultiChoice adds recognized options to the field's set. The field
// advances only on a done directive, and a mandatory field only when at
// least one option is selected.
func (w *IntakeWizard) submitMultiChoice(f model.IntakeField, tokens []string) AnswerResult {
	values := matchOptions(f, tokens)
	done := utils.DoneDirectives.Any(tokens)

	if len(values) == 0 && !done {
		return w.reject(&model.FieldError{Field: f, Reason: "opção não reconhecida"}, "")
	}
	if done && len(values) == 0 && len(w.draft.Selections(f)) == 0 && f.Mandatory() {
		return w.reject(&model.FieldError{Field: f, Reason: "selecione ao menos uma opção"}, "")
	}

	for _, v := range values {
		w.draft.AddSelection(f, v)
	}
	if done {
		return w.advance(f)
	}
	return AnswerResult{Accepted: true, Field: f.Key(), Prompt: w.prompt()}
}

func (w *IntakeWizard) advance(f model.IntakeField) AnswerResult {
	next := f + 1
	if !next.Valid() {
		w.confirming = true
		zap.L().Debug("intake awaiting confirmation")
	} else {
		w.cursor = next
	}
	return AnswerResult{Accepted: true, Advanced: true, Field: f.Key(), Prompt: w.prompt()}
}

func (w *IntakeWizard) reject(err error, msg string) AnswerResult {
	res := AnswerResult{Error: msg, Prompt: w.prompt()}
	var fe *model.FieldError
	if errors.As(err, &fe) {
		res.Field = fe.Field.Key()
		res.Error = fe.Error()
	}
	return res
}

// AttachImages adds files to the pending image set and returns its size.
func (w *IntakeWizard) AttachImages(files []model.ImageFile) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, f := range files {
		if len(f.Data) == 0 {
			return len(w.draft.Images), eris.Errorf("intake: image %q is empty", f.Name)
		}
		if !strings.HasPrefix(f.ContentType, "image/") {
			return len(w.draft.Images), eris.Errorf("intake: %q is not an image", f.Name)
		}
	}
	w.draft.Images = append(w.draft.Images, files...)
	return len(w.draft.Images), nil
}

// ConfirmAndCommit re-validates the draft and writes it: base record, then
// detail, then images. Image failures are warnings. When a record write
// fails the draft is kept so the seller can retry; a base record that was
// already created is not created again.
func (w *IntakeWizard) ConfirmAndCommit(ctx context.Context) CommitResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.confirming {
		return CommitResult{Error: ErrNotConfirming.Error()}
	}
	if res, ok := w.checkConfirmable(); !ok {
		return res
	}

	if w.draft.ListingID == nil {
		id, err := w.writer.CreateListing(ctx, w.baseRecord())
		if err != nil {
			zap.L().Warn("create listing failed", zap.Error(err))
			return CommitResult{Error: "Não foi possível criar o anúncio. Seus dados foram mantidos; tente confirmar novamente."}
		}
		w.draft.ListingID = &id
	}
	listingID := *w.draft.ListingID

	if err := w.writer.CreateListingDetail(ctx, listingID, w.detailRecord(listingID)); err != nil {
		zap.L().Warn("create listing detail failed", zap.Int64("listing_id", listingID), zap.Error(err))
		return CommitResult{
			ListingID: &listingID,
			Error:     "O anúncio foi criado, mas os detalhes não foram salvos. Tente confirmar novamente.",
		}
	}

	urls, warnings := w.uploadImages(ctx, listingID, w.draft.Images)

	zap.L().Info("listing committed",
		zap.Int64("listing_id", listingID),
		zap.Int("images", len(urls)),
		zap.Int("warnings", len(warnings)),
	)

	w.draft = model.ListingDraft{}
	w.cursor = model.FieldTitle
	w.confirming = false
	return CommitResult{Success: true, ListingID: &listingID, ImageURLs: urls, Warnings: warnings}
}

func (w *IntakeWizard) checkConfirmable() (CommitResult, bool) {
	fail := func(f model.IntakeField, reason string) (CommitResult, bool) {
		fe := &model.FieldError{Field: f, Reason: reason}
		return CommitResult{Field: f.Key(), Error: fe.Error()}, false
	}

	if w.draft.Coordinates == "" {
		return fail(model.FieldAddress, "endereço não validado no mapa")
	}
	for _, f := range model.IntakeFields() {
		if f.Mandatory() && f.Type() == model.ValueMultiChoice && len(w.draft.Selections(f)) == 0 {
			return fail(f, "selecione ao menos uma opção")
		}
	}
	if strings.TrimSpace(w.draft.Documentation) == "" {
		return fail(model.FieldDocumentation, "informe a documentação do imóvel")
	}
	if len(w.draft.Images) == 0 {
		return CommitResult{Field: ImagesField, Error: "Anexe ao menos uma imagem do imóvel antes de confirmar."}, false
	}
	return CommitResult{}, true
}

// uploadImages sends every image concurrently and waits for all of them.
// One failure does not cancel the others.
func (w *IntakeWizard) uploadImages(ctx context.Context, listingID int64, files []model.ImageFile) ([]string, []string) {
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(w.uploadConcurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			urls[i], errs[i] = w.images.UploadImage(ctx, listingID, file)
			return nil
		})
	}
	_ = g.Wait()

	var uploaded, warnings []string
	for i, err := range errs {
		if err != nil {
			zap.L().Warn("image upload failed",
				zap.Int64("listing_id", listingID),
				zap.String("file", files[i].Name),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("Falha ao enviar a imagem %s", files[i].Name))
			continue
		}
		uploaded = append(uploaded, urls[i])
	}
	return uploaded, warnings
}

func (w *IntakeWizard) baseRecord() model.ListingBase {
	d := w.draft
	category := "Imóvel rural"
	if t, ok := utils.PropertyTypes.Last(utils.Normalize(d.Title)); ok {
		category = t
	}
	title := d.Title
	if title == "" {
		title = category
		if d.City != "" && d.State != "" {
			title += " em " + d.City + "/" + d.State
		}
	}
	return model.ListingBase{Title: title, Category: category, Price: d.Price, Status: model.StatusActive}
}

func (w *IntakeWizard) detailRecord(listingID int64) model.ListingDetail {
	d := w.draft
	return model.ListingDetail{
		ListingID:     listingID,
		State:         d.State,
		City:          d.City,
		Address:       d.Address,
		Coordinates:   d.Coordinates,
		Purposes:      model.JSONArray(d.Purposes),
		AreaHectares:  d.AreaHectares,
		OfferType:     d.OfferType,
		WaterSources:  model.JSONArray(d.WaterSources),
		Energy:        model.JSONArray(d.Energy),
		SoilTypes:     model.JSONArray(d.SoilTypes),
		Documentation: d.Documentation,
		Structures:    model.JSONArray(d.Structures),
	}
}

func (w *IntakeWizard) summary() string {
	d := w.draft
	var b strings.Builder
	b.WriteString("Resumo do anúncio:")
	for _, f := range model.IntakeFields() {
		fmt.Fprintf(&b, "\n%s: %s", f.Label(), displayValue(f, &d))
	}
	fmt.Fprintf(&b, "\nImagens anexadas: %d", len(d.Images))
	if len(d.Images) == 0 {
		b.WriteString("\nAnexe ao menos uma imagem e confirme o cadastro.")
	} else {
		b.WriteString("\nConfirme para publicar o anúncio.")
	}
	return b.String()
}

func displayValue(f model.IntakeField, d *model.ListingDraft) string {
	if !d.Populated(f) {
		return "-"
	}
	switch f {
	case model.FieldTitle:
		return d.Title
	case model.FieldAddress:
		v := d.DisplayAddress
		if v == "" {
			v = d.Address
		}
		if d.City != "" && d.State != "" {
			v += " (" + d.City + "/" + d.State + ")"
		}
		return v
	case model.FieldArea:
		return utils.FormatNumber(*d.AreaHectares) + " ha"
	case model.FieldOfferType:
		return d.OfferType.Label()
	case model.FieldPrice:
		return d.Price
	case model.FieldDocumentation:
		return d.Documentation
	}
	return strings.Join(labelsFor(f, d.Selections(f)), ", ")
}

func question(f model.IntakeField) string {
	switch f {
	case model.FieldTitle:
		return "Qual o título do anúncio?"
	case model.FieldAddress:
		return "Qual o endereço do imóvel (com cidade e estado)?"
	case model.FieldPurpose:
		return "Qual a finalidade do imóvel?"
	case model.FieldArea:
		return "Qual a área total em hectares?"
	case model.FieldOfferType:
		return "O imóvel é para venda ou arrendamento?"
	case model.FieldPrice:
		return "Qual o preço pedido?"
	case model.FieldWaterSource:
		return "Quais as fontes de água?"
	case model.FieldEnergy:
		return "Qual a energia disponível?"
	case model.FieldSoilType:
		return "Qual o tipo de solo?"
	case model.FieldDocumentation:
		return "Como está a documentação (matrícula, CAR, ITR)?"
	case model.FieldStructures:
		return "Quais as benfeitorias?"
	}
	return f.Label() + "?"
}

// skippable fields may be left blank with a skip directive.
func skippable(f model.IntakeField) bool {
	return !f.Mandatory() && f != model.FieldAddress
}

func dictionaryFor(f model.IntakeField) *utils.Dictionary {
	switch f {
	case model.FieldPurpose:
		return utils.Purposes
	case model.FieldOfferType:
		return utils.OfferTypes
	case model.FieldWaterSource:
		return utils.WaterSources
	case model.FieldEnergy:
		return utils.EnergySources
	case model.FieldSoilType:
		return utils.SoilTypes
	case model.FieldStructures:
		return utils.Structures
	}
	return nil
}

func optionsFor(f model.IntakeField) []Option {
	dict := dictionaryFor(f)
	if dict == nil {
		return nil
	}
	var opts []Option
	for _, c := range dict.Canonicals() {
		opts = append(opts, Option{Value: c, Label: optionLabel(f, c)})
	}
	return opts
}

func optionLabel(f model.IntakeField, value string) string {
	switch f {
	case model.FieldPurpose:
		return model.Purpose(value).Label()
	case model.FieldOfferType:
		return model.OfferType(value).Label()
	}
	return value
}

func labelsFor(f model.IntakeField, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = optionLabel(f, v)
	}
	return out
}

// matchOptions resolves an answer to option values, by vocabulary or by
// option number ("1, 3"). Numbers count as option numbers only when no
// vocabulary matched, so "tem 2 nascentes" is not read as option 2.
func matchOptions(f model.IntakeField, tokens []string) []string {
	dict := dictionaryFor(f)
	if dict == nil {
		return nil
	}
	opts := dict.Canonicals()

	var values []string
	seen := make(map[string]bool)
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}

	for _, m := range dict.Scan(tokens) {
		add(m.Canonical)
	}
	if len(values) > 0 {
		return values
	}
	for _, tok := range tokens {
		for _, part := range strings.FieldsFunc(tok, func(r rune) bool { return r == ',' || r == '.' }) {
			n, err := strconv.Atoi(part)
			if err == nil && n >= 1 && n <= len(opts) {
				add(opts[n-1])
			}
		}
	}
	return values
}
