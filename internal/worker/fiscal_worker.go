package worker

// fiscal_worker.go
// Processes NFC-e jobs from QueueFiscal.
//   emit: posts the committed sale to the issuer, then schedules a poll.
//   poll: queries the issuer until the receipt is authorized or rejected.
// Failed calls are retried through the delayed set with exponential backoff
// until FISCAL_MAX_ATTEMPTS, then the job goes to the DLQ and the sale is
// marked erro_envio / erro_consulta.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// FiscalJobPayload identifies the sale a fiscal job works on.
type FiscalJobPayload struct {
	SaleID  string `json:"sale_id"`
	StoreID string `json:"store_id"`
}

// FiscalIssuer is the external receipt authority. *infra.FocusNFeClient
// implements it.
type FiscalIssuer interface {
	Emit(ctx context.Context, ref string, payload infra.NFCePayload) error
	Status(ctx context.Context, ref string) (*infra.NFCeStatus, error)
	DocumentURL(path string) string
}

type FiscalWorkerConfig struct {
	MaxAttempts int
	PollDelay   time.Duration
}

type FiscalWorker struct {
	issuer     FiscalIssuer
	cb         *infra.CircuitBreaker
	repos      repository.Factory
	dispatcher *Dispatcher
	rdb        *redis.Client
	cfg        FiscalWorkerConfig
}

func NewFiscalWorker(
	issuer FiscalIssuer,
	cb *infra.CircuitBreaker,
	repos repository.Factory,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	cfg FiscalWorkerConfig,
) *FiscalWorker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = 8 * time.Second
	}
	return &FiscalWorker{issuer: issuer, cb: cb, repos: repos, dispatcher: dispatcher, rdb: rdb, cfg: cfg}
}

// Backoff returns the delay before retry number attempt (1-based):
// 2s, 4s, 8s ... capped at 5 minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	return d
}

func (w *FiscalWorker) Process(ctx context.Context, job Job) {
	var payload FiscalJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Error().Err(err).Msg("fiscal_worker: invalid payload")
		return
	}
	saleID, err1 := uuid.Parse(payload.SaleID)
	storeID, err2 := uuid.Parse(payload.StoreID)
	if err1 != nil || err2 != nil {
		log.Error().Str("sale_id", payload.SaleID).Str("store_id", payload.StoreID).Msg("fiscal_worker: invalid ids")
		SendToDLQ(ctx, w.rdb, QueueFiscal, job.Type, job.Payload, "invalid ids", job.Attempt)
		return
	}

	// Workers act for the store that owns the sale.
	ctx = tenant.WithPrincipal(ctx, tenant.System(storeID))

	switch job.Type {
	case JobEmit:
		w.emit(ctx, job, saleID)
	case JobPoll:
		w.poll(ctx, job, saleID)
	default:
		log.Error().Str("type", job.Type).Msg("fiscal_worker: unknown job type")
		SendToDLQ(ctx, w.rdb, QueueFiscal, job.Type, job.Payload, "unknown job type", job.Attempt)
	}
}

// ── emit ──────────────────────────────────────────────────────────────────────

func (w *FiscalWorker) emit(ctx context.Context, job Job, saleID uuid.UUID) {
	repos := w.repos.For(ctx)
	sale, err := repos.Sales.FindByID(ctx, nil, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", saleID.String()).Msg("fiscal_worker: sale not found")
		SendToDLQ(ctx, w.rdb, QueueFiscal, job.Type, job.Payload, err.Error(), job.Attempt)
		return
	}
	p, _ := tenant.FromContext(ctx)
	store, err := repos.Stores.FindByID(ctx, p.StoreID)
	if err != nil {
		w.retry(ctx, job, saleID, err, model.NFCeSendError)
		return
	}
	if !store.FiscalConfigured() {
		w.fail(ctx, job, saleID, "loja sem configuração fiscal", model.NFCeSendError)
		return
	}

	w.setStatus(ctx, saleID, repository.FiscalUpdate{Status: model.NFCeProcessing})

	payload := BuildNFCePayload(store, sale, w.productsOf(ctx, sale))
	err = w.cb.Execute(func() error {
		return w.issuer.Emit(ctx, sale.ID.String(), payload)
	})
	if err != nil {
		w.retry(ctx, job, saleID, err, model.NFCeSendError)
		return
	}

	log.Info().Str("sale_id", saleID.String()).Msg("fiscal_worker: NFC-e accepted by issuer")
	poll := Job{Type: JobPoll, Payload: job.Payload}
	if err := w.dispatcher.Schedule(ctx, poll, w.cfg.PollDelay); err != nil {
		log.Error().Err(err).Str("sale_id", saleID.String()).Msg("fiscal_worker: failed to schedule poll")
		w.setStatus(ctx, saleID, repository.FiscalUpdate{Status: model.NFCeStatusError})
	}
}

func (w *FiscalWorker) productsOf(ctx context.Context, sale *model.Sale) map[uuid.UUID]*model.Product {
	repos := w.repos.For(ctx)
	out := make(map[uuid.UUID]*model.Product, len(sale.Items))
	for _, it := range sale.Items {
		if _, ok := out[it.ProductID]; ok {
			continue
		}
		p, err := repos.Products.FindByID(ctx, nil, it.ProductID)
		if err != nil {
			log.Warn().Err(err).Str("product_id", it.ProductID.String()).Msg("fiscal_worker: product lookup failed")
			continue
		}
		out[it.ProductID] = p
	}
	return out
}

// ── poll ──────────────────────────────────────────────────────────────────────

func (w *FiscalWorker) poll(ctx context.Context, job Job, saleID uuid.UUID) {
	var status *infra.NFCeStatus
	err := w.cb.Execute(func() error {
		st, err := w.issuer.Status(ctx, saleID.String())
		if err != nil {
			return err
		}
		status = st
		return nil
	})
	if err != nil {
		w.retry(ctx, job, saleID, err, model.NFCeStatusError)
		return
	}

	switch status.Status {
	case model.NFCeAuthorized:
		pdf := w.issuer.DocumentURL(status.CaminhoDanfe)
		xml := w.issuer.DocumentURL(status.CaminhoXMLNotaFiscal)
		w.setStatus(ctx, saleID, repository.FiscalUpdate{Status: model.NFCeAuthorized, PDFURL: &pdf, XMLURL: &xml})
		log.Info().Str("sale_id", saleID.String()).Msg("fiscal_worker: NFC-e authorized")
		w.notifyCustomer(ctx, saleID, pdf)
	case model.NFCeRejected:
		reason := status.MotivoRejeicao
		if reason == "" {
			reason = status.Mensagem
		}
		w.setStatus(ctx, saleID, repository.FiscalUpdate{Status: model.NFCeRejected, RejectionReason: &reason})
		log.Warn().Str("sale_id", saleID.String()).Str("reason", reason).Msg("fiscal_worker: NFC-e rejected")
	default:
		w.retry(ctx, job, saleID, fmt.Errorf("issuer still %q", status.Status), model.NFCeStatusError)
	}
}

func (w *FiscalWorker) notifyCustomer(ctx context.Context, saleID uuid.UUID, pdfURL string) {
	repos := w.repos.For(ctx)
	sale, err := repos.Sales.FindByID(ctx, nil, saleID)
	if err != nil || sale.CustomerID == nil {
		return
	}
	customer, err := repos.Customers.FindByID(ctx, nil, *sale.CustomerID)
	if err != nil || customer.Email == nil || *customer.Email == "" {
		return
	}
	job := EmailJobPayload{
		ToEmail: *customer.Email,
		Subject: "Sua NFC-e está disponível",
		Body: fmt.Sprintf("Olá %s,\n\nSua nota fiscal da compra de R$ %s está disponível em:\n%s\n",
			customer.Name, sale.FinalAmount.StringFixed(2), pdfURL),
	}
	if err := w.dispatcher.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("sale_id", saleID.String()).Msg("fiscal_worker: failed to enqueue email")
	}
}

// ── retry / fail ──────────────────────────────────────────────────────────────

func (w *FiscalWorker) retry(ctx context.Context, job Job, saleID uuid.UUID, cause error, failStatus string) {
	next := job.Attempt + 1
	if next >= w.cfg.MaxAttempts {
		w.fail(ctx, Job{Type: job.Type, Payload: job.Payload, Attempt: next}, saleID,
			fmt.Sprintf("max attempts (%d) exceeded: %v", w.cfg.MaxAttempts, cause), failStatus)
		return
	}
	delay := Backoff(next)
	log.Warn().
		Err(cause).
		Str("sale_id", saleID.String()).
		Str("type", job.Type).
		Int("attempt", next).
		Dur("delay", delay).
		Msg("fiscal_worker: attempt failed, scheduled retry")
	if err := w.dispatcher.Schedule(ctx, Job{Type: job.Type, Payload: job.Payload, Attempt: next}, delay); err != nil {
		w.fail(ctx, job, saleID, fmt.Sprintf("schedule retry: %v", err), failStatus)
	}
}

func (w *FiscalWorker) fail(ctx context.Context, job Job, saleID uuid.UUID, reason, status string) {
	SendToDLQ(ctx, w.rdb, QueueFiscal, job.Type, job.Payload, reason, job.Attempt)
	w.setStatus(ctx, saleID, repository.FiscalUpdate{Status: status})
}

func (w *FiscalWorker) setStatus(ctx context.Context, saleID uuid.UUID, upd repository.FiscalUpdate) {
	if err := w.repos.For(ctx).Sales.UpdateFiscal(ctx, saleID, upd); err != nil {
		log.Error().Err(err).Str("sale_id", saleID.String()).Str("status", upd.Status).Msg("fiscal_worker: failed to update sale")
	}
}

// ── payload mapping ───────────────────────────────────────────────────────────

// Footwear defaults for a Simples Nacional retailer.
const (
	defaultNCM   = "64039990"
	defaultCFOP  = "5102"
	icmsOrigem   = "0"
	icmsSituacao = "102"
)

// BuildNFCePayload maps a committed sale to the issuer's NFC-e body. The
// whole sale discount goes on the first line.
func BuildNFCePayload(store *model.Store, sale *model.Sale, products map[uuid.UUID]*model.Product) infra.NFCePayload {
	p := infra.NFCePayload{
		CNPJEmitente:      deref(store.CNPJ),
		NomeEmitente:      deref(store.RazaoSocial),
		DataEmissao:       sale.CreatedAt.Format(time.RFC3339),
		NaturezaOperacao:  "VENDA AO CONSUMIDOR",
		PresencaComprador: "1",
		ModalidadeFrete:   "9",
		LocalDestino:      "1",
		Items:             make([]infra.NFCeItem, len(sale.Items)),
		FormasPagamento: []infra.NFCePayment{{
			FormaPagamento: paymentCode(sale.PaymentMethod),
			ValorPagamento: sale.FinalAmount.StringFixed(2),
		}},
	}
	if store.InscricaoEstadual != nil {
		p.InscricaoEstadualEmitente = *store.InscricaoEstadual
	}
	for i, it := range sale.Items {
		desc := fmt.Sprintf("PRODUTO %s %s %s", it.ProductID.String()[:8], it.ColorSlug, it.Number)
		if prod, ok := products[it.ProductID]; ok {
			desc = fmt.Sprintf("%s %s %s N%s", prod.Brand, prod.Model, it.ColorSlug, it.Number)
		}
		discount := decimal.Zero
		if i == 0 {
			discount = sale.Discount
		}
		qty := decimal.NewFromInt(int64(it.Quantity)).StringFixed(2)
		price := it.PriceAtSale.StringFixed(2)
		p.Items[i] = infra.NFCeItem{
			NumeroItem:              fmt.Sprint(i + 1),
			CodigoProduto:           it.SKU().String(),
			Descricao:               strings.ToUpper(desc),
			CodigoNCM:               defaultNCM,
			CFOP:                    defaultCFOP,
			UnidadeComercial:        "UN",
			QuantidadeComercial:     qty,
			ValorUnitarioComercial:  price,
			UnidadeTributavel:       "UN",
			QuantidadeTributavel:    qty,
			ValorUnitarioTributavel: price,
			ValorDesconto:           discount.StringFixed(2),
			ICMSOrigem:              icmsOrigem,
			ICMSSituacaoTributaria:  icmsSituacao,
		}
	}
	return p
}

// paymentCode maps a payment method to the NFC-e forma_pagamento code.
func paymentCode(method string) string {
	m := strings.ToLower(method)
	switch {
	case m == strings.ToLower(model.PaymentCash):
		return "01"
	case strings.Contains(m, "créd") || strings.Contains(m, "cred"):
		return "03"
	case strings.Contains(m, "déb") || strings.Contains(m, "deb"):
		return "04"
	case m == strings.ToLower(model.PaymentStoreCredit):
		return "05"
	case strings.Contains(m, "pix"):
		return "17"
	default:
		return "99"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
