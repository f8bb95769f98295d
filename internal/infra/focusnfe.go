package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// NFCeItem is one line of the consumer receipt.
type NFCeItem struct {
	NumeroItem              string `json:"numero_item"`
	CodigoProduto           string `json:"codigo_produto"`
	Descricao               string `json:"descricao"`
	CodigoNCM               string `json:"codigo_ncm"`
	CFOP                    string `json:"cfop"`
	UnidadeComercial        string `json:"unidade_comercial"`
	QuantidadeComercial     string `json:"quantidade_comercial"`
	ValorUnitarioComercial  string `json:"valor_unitario_comercial"`
	UnidadeTributavel       string `json:"unidade_tributavel"`
	QuantidadeTributavel    string `json:"quantidade_tributavel"`
	ValorUnitarioTributavel string `json:"valor_unitario_tributavel"`
	ValorDesconto           string `json:"valor_desconto"`
	ICMSOrigem              string `json:"icms_origem"`
	ICMSSituacaoTributaria  string `json:"icms_situacao_tributaria"`
}

// NFCePayment is one entry of formas_pagamento.
type NFCePayment struct {
	FormaPagamento string `json:"forma_pagamento"`
	ValorPagamento string `json:"valor_pagamento"`
}

// NFCePayload is the body posted to the issuer for a new receipt.
type NFCePayload struct {
	CNPJEmitente              string        `json:"cnpj_emitente"`
	InscricaoEstadualEmitente string        `json:"inscricao_estadual_emitente,omitempty"`
	NomeEmitente              string        `json:"nome_emitente,omitempty"`
	DataEmissao               string        `json:"data_emissao"`
	NaturezaOperacao          string        `json:"natureza_operacao"`
	PresencaComprador         string        `json:"presenca_comprador"`
	ModalidadeFrete           string        `json:"modalidade_frete"`
	LocalDestino              string        `json:"local_destino"`
	Items                     []NFCeItem    `json:"items"`
	FormasPagamento           []NFCePayment `json:"formas_pagamento"`
}

// NFCeStatus is the issuer's answer to a status query.
// Status: "processando" | "autorizada" | "rejeitada" | ...
type NFCeStatus struct {
	Status               string `json:"status"`
	CaminhoDanfe         string `json:"caminho_danfe"`
	CaminhoXMLNotaFiscal string `json:"caminho_xml_nota_fiscal"`
	MotivoRejeicao       string `json:"motivo_rejeicao"`
	Mensagem             string `json:"mensagem"`
}

// FiscalIssuerError is returned when the issuer answers with an unexpected
// HTTP status. Message carries the issuer's "mensagem" field when present.
type FiscalIssuerError struct {
	StatusCode int
	Message    string
}

func (e *FiscalIssuerError) Error() string {
	return fmt.Sprintf("fiscal: issuer returned %d: %s", e.StatusCode, e.Message)
}

// FocusNFeClient talks to a Focus NFe compatible issuer over HTTP, using the
// API token as the basic auth username.
type FocusNFeClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewFocusNFeClient(baseURL, token string) *FocusNFeClient {
	return &FocusNFeClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emit submits a receipt under reference ref. The issuer accepts it for
// asynchronous processing with 202.
func (c *FocusNFeClient) Emit(ctx context.Context, ref string, payload NFCePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fiscal: marshal payload: %w", err)
	}

	endpoint := c.baseURL + "/v2/nfce?ref=" + url.QueryEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fiscal: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.token, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fiscal: issuer unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return issuerError(resp)
	}
	return nil
}

// Status queries the processing status of the receipt with reference ref.
func (c *FocusNFeClient) Status(ctx context.Context, ref string) (*NFCeStatus, error) {
	endpoint := c.baseURL + "/v2/nfce/" + url.PathEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fiscal: create request: %w", err)
	}
	req.SetBasicAuth(c.token, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fiscal: issuer unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, issuerError(resp)
	}

	var status NFCeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("fiscal: decode response: %w", err)
	}
	return &status, nil
}

func issuerError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Mensagem string `json:"mensagem"`
	}
	msg := string(raw)
	if json.Unmarshal(raw, &body) == nil && body.Mensagem != "" {
		msg = body.Mensagem
	}
	return &FiscalIssuerError{StatusCode: resp.StatusCode, Message: msg}
}

// DocumentURL resolves a path returned by the issuer (caminho_danfe,
// caminho_xml_nota_fiscal) against the issuer host.
func (c *FocusNFeClient) DocumentURL(path string) string {
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return c.baseURL + path
}
