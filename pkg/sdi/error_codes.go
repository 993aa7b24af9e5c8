// Package sdi contiene el catálogo de códigos de error del Sistema di Interscambio
// (SdI, Agenzia delle Entrate) y su interpretación en texto libre.
//
// El catálogo es de solo lectura: se construye una vez al iniciar el proceso y
// ningún componente lo modifica en tiempo de ejecución.
package sdi

// Severity clasificación aproximada de un código de error para triage.
// No es una clasificación legal certificada: la lista de críticos/altos es una
// semilla pequeña y el resto cae en "medium".
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// ErrorCode descripción de un código de rechazo devuelto por el SdI.
type ErrorCode struct {
	Code        string   `json:"code"`
	Description string   `json:"description"` // texto de la autoridad
	Suggestion  string   `json:"suggestion"`  // acción correctiva sugerida
	Severity    Severity `json:"severity"`
	AutoFixable bool     `json:"auto_fixable"`
}

// Códigos con corrección automática determinista (ver domain/einvoice/autofix.go).
const (
	CodeVATNatureMissing          = "00400" // Natura ausente con aliquota zero → natura por defecto
	CodeTransmissionFormatInvalid = "00427" // FormatoTrasmissione incoerente → valor fijo
	CodePostalCodeInvalid         = "00428" // CAP mal formateado → normalizar
	CodeProvinceInvalid           = "00429" // Provincia en minúscula → mayúsculas
)

var criticalCodes = map[string]bool{
	"00001": true, "00002": true, "00100": true, "00101": true,
	"00102": true, "00200": true, "00404": true,
}

var highCodes = map[string]bool{
	"00305": true, "00306": true, "00311": true, "00421": true,
	"00422": true, "00423": true, "00433": true,
}

var autoFixableCodes = map[string]bool{
	CodeVATNatureMissing:          true,
	CodeTransmissionFormatInvalid: true,
	CodePostalCodeInvalid:         true,
	CodeProvinceInvalid:           true,
}

type catalogEntry struct {
	code, description, suggestion string
}

// =============================================================================
// 000xx - Controlli sul file (nome, dimensione, duplicati)
// =============================================================================

var fileChecks = []catalogEntry{
	{"00001", "Nome file non valido", "Regenerar el archivo con el nombre IT<partita IVA>_<progresivo>.xml y reenviar."},
	{"00002", "Nome file duplicato", "El progresivo ya fue usado: generar un nuevo identificador de transmisión."},
	{"00003", "Le dimensioni del file superano quelle ammesse", "Reducir adjuntos o dividir el lote; el límite es 5 MB."},
}

// =============================================================================
// 001xx - Controlli sulla firma digitale
// =============================================================================

var signatureChecks = []catalogEntry{
	{"00100", "Certificato di firma scaduto", "Renovar el certificado de firma y volver a firmar el documento."},
	{"00101", "Certificato di firma revocato", "Solicitar un nuevo certificado a la CA; el actual no es utilizable."},
	{"00102", "File non integro (firma non valida)", "Volver a firmar el archivo sin modificarlo después de la firma."},
	{"00103", "La firma digitale apposta manca del riferimento temporale", "Firmar con marca temporal (signing time) incluida."},
	{"00104", "La CA che ha rilasciato il certificato non è nell'elenco pubblico dei certificatori", "Usar un certificado emitido por una CA acreditada AgID."},
	{"00105", "Il riferimento temporale della firma è successivo a quello di ricezione", "Revisar el reloj del servidor de firma y volver a firmar."},
	{"00106", "File o archivio compresso vuoto o corrotto", "Regenerar el archivo o el ZIP y verificar su integridad antes de enviar."},
	{"00107", "Certificato non valido", "Verificar la cadena del certificado de firma."},
	{"00108", "Errore nell'elaborazione della firma", "Reintentar la firma; si persiste, contactar al proveedor del certificado."},
	{"00110", "Il file non contiene la firma digitale richiesta", "Firmar el documento (obligatorio para el formato FPA12)."},
}

// =============================================================================
// 002xx - Controlli di formato (schema XSD)
// =============================================================================

var formatChecks = []catalogEntry{
	{"00200", "File non conforme al formato", "Validar el XML contra el esquema FatturaPA 1.2.2 y corregir los elementos indicados."},
	{"00201", "Superato il numero massimo di errori di formato", "Validar el XML completo contra el esquema antes de reenviar."},
}

// =============================================================================
// 003xx - Controlli sui soggetti (partite IVA, codici fiscali, destinatario)
// =============================================================================

var partyChecks = []catalogEntry{
	{"00300", "1.1.1.2 <IdCodice> del trasmittente non valido", "Corregir el código fiscal del transmisor en la configuración de la sede."},
	{"00301", "1.2.1.1.2 <IdCodice> del cedente/prestatore non valido", "Verificar la partita IVA del gimnasio en la ficha de empresa."},
	{"00303", "1.3.1.1.2 <IdCodice> del rappresentante fiscale non valido", "Corregir la partita IVA del representante fiscal o eliminar el bloque."},
	{"00305", "1.4.1.1.2 <IdCodice> del cessionario/committente non valido", "Corregir la partita IVA del cliente en su ficha."},
	{"00306", "1.4.1.2 <CodiceFiscale> del cessionario/committente non valido", "Corregir el código fiscal del cliente en su ficha."},
	{"00311", "1.1.4 <CodiceDestinatario> non valido", "Verificar el código destinatario (SDI) indicado por el cliente."},
	{"00312", "1.1.4 <CodiceDestinatario> non attivo", "Solicitar al cliente un código destinatario activo o su PEC."},
	{"00313", "1.1.6 <PECDestinatario> non valido", "Corregir la dirección PEC del cliente."},
	{"00320", "Codice fiscale del soggetto emittente non valido", "Verificar el código fiscal del emisor."},
	{"00321", "Codice fiscale del soggetto trasmittente non valido", "Verificar el código fiscal del intermediario de transmisión."},
	{"00324", "Partita IVA del cedente/prestatore cessata", "Confirmar el estado de la partita IVA con la Agenzia delle Entrate."},
	{"00325", "Partita IVA del cessionario/committente cessata", "Confirmar la partita IVA del cliente; facturar con código fiscal si corresponde."},
	{"00398", "Codice destinatario valorizzato con un codice ufficio IPA", "Usar el flujo de factura a la Pubblica Amministrazione (FPA12)."},
	{"00399", "Cessionario/committente presente in IPA con codice destinatario non conforme", "Solicitar el código único de oficina IPA del cliente público."},
}

// =============================================================================
// 004xx - Controlli di coerenza del contenuto
// =============================================================================

var contentChecks = []catalogEntry{
	{"00400", "2.2.1.14 <Natura> non presente a fronte di 2.2.1.12 <AliquotaIVA> pari a zero", "Indicar la naturaleza de la operación exenta; se aplica la natura por defecto configurada."},
	{"00401", "2.2.1.14 <Natura> presente a fronte di 2.2.1.12 <AliquotaIVA> diversa da zero", "Quitar la natura en líneas con IVA distinto de cero."},
	{"00403", "2.1.1.3 <Data> successiva alla data di ricezione", "Corregir la fecha del documento: no puede ser futura."},
	{"00404", "Fattura duplicata", "El documento ya fue aceptado: no reenviar; emitir nota de crédito si hace falta."},
	{"00409", "Fattura duplicata nel lotto", "Eliminar el documento repetido del lote."},
	{"00411", "2.1.1.5 <DatiRitenuta> non presente a fronte di almeno una linea con <Ritenuta> SI", "Completar los datos de retención o desmarcar la retención en la línea."},
	{"00413", "2.1.1.7.7 <Natura> non presente a fronte di 2.1.1.7.5 <AliquotaIVA> pari a zero", "Indicar la natura en los datos de cassa previdenziale."},
	{"00414", "2.1.1.7.7 <Natura> presente a fronte di 2.1.1.7.5 <AliquotaIVA> diversa da zero", "Quitar la natura de la cassa previdenziale con IVA."},
	{"00415", "2.1.1.5 <DatiRitenuta> non presente a fronte di 2.1.1.7.6 <Ritenuta> SI", "Completar los datos de retención de la cassa previdenziale."},
	{"00417", "1.4.1.1 <IdFiscaleIVA> e 1.4.1.2 <CodiceFiscale> non valorizzati", "Completar partita IVA o código fiscal del cliente."},
	{"00418", "2.1.1.3 <Data> antecedente a 2.1.6.3 <Data> della fattura collegata", "Corregir la fecha del documento o de la factura referenciada."},
	{"00419", "2.2.2 <DatiRiepilogo> non presente in corrispondenza di almeno un valore di <AliquotaIVA>", "Regenerar el resumen de IVA por alícuota."},
	{"00420", "2.2.2.2 <Natura> N6 a fronte di 2.2.2.7 <EsigibilitaIVA> uguale a S", "Revisar la exigibilidad del IVA para inversión del sujeto pasivo."},
	{"00421", "2.2.2.6 <Imposta> non calcolato secondo le regole definite", "Recalcular el impuesto del resumen (imponible × alícuota, redondeo a 2 decimales)."},
	{"00422", "2.2.2.5 <ImponibileImporto> non calcolato secondo le regole definite", "Recalcular el imponible sumando los precios totales de las líneas."},
	{"00423", "2.2.1.11 <PrezzoTotale> non calcolato secondo le regole definite", "Recalcular el precio total de la línea (cantidad × precio − descuentos)."},
	{"00424", "<AliquotaIVA> non indicata in termini percentuali", "Expresar la alícuota como porcentaje (22.00, no 0.22)."},
	{"00425", "2.1.1.4 <Numero> non contenente caratteri numerici", "El número del documento debe contener al menos un dígito."},
	{"00426", "1.1.6 <PECDestinatario> non valorizzato a fronte di <CodiceDestinatario> 0000000 con PEC", "Indicar la PEC del cliente o su código destinatario."},
	{"00427", "1.1.4 <CodiceDestinatario> incoerente con 1.1.3 <FormatoTrasmissione>", "Se fija FormatoTrasmissione al valor configurado (FPR12 para privados)."},
	{"00428", "1.4.2.4 <CAP> non valido", "Se normaliza el CAP a 5 dígitos."},
	{"00429", "1.4.2.6 <Provincia> non valida", "Se convierte la sigla de provincia a mayúsculas."},
	{"00430", "2.2.1.14 <Natura> generica non più ammessa", "Usar el código de natura detallado (N2.1, N2.2, N3.x, ...)."},
	{"00431", "2.2.2.1 <AliquotaIVA> del riepilogo non coerente con le linee", "Regenerar el resumen de IVA a partir de las líneas."},
	{"00433", "Importi non coerenti", "Revisar totales de líneas, resumen e importe total del documento."},
	{"00437", "2.2.1.10 <ScontoMaggiorazione> non coerente con il prezzo", "Revisar descuentos aplicados a la línea."},
	{"00438", "2.1.1.5.1 <TipoRitenuta> non coerente con il tipo di soggetto", "Corregir el tipo de retención (persona física o jurídica)."},
	{"00441", "Valore di <Natura> non ammesso per il tipo documento", "Revisar la natura según el tipo de documento."},
	{"00443", "Natura N6 non coerente con la presenza di IVA", "Quitar el IVA en operaciones con inversión del sujeto pasivo."},
	{"00444", "Natura N6 generica non più ammessa", "Usar el código N6.x detallado."},
	{"00445", "Natura N2, N3 o N6 generiche non più ammesse", "Usar los códigos de natura detallados vigentes."},
	{"00448", "<TipoDocumento> non più ammesso", "Usar un TipoDocumento vigente (TD01, TD04, TD24, ...)."},
	{"00460", "<ImportoTotaleDocumento> non coerente con la somma dei riepiloghi", "Recalcular el importe total del documento."},
	{"00461", "Tipo documento autofattura con cedente uguale al cessionario", "El tipo de documento no admite emisor igual a receptor."},
	{"00464", "<Ritenuta> SI in fattura semplificata", "Las facturas simplificadas no admiten retención."},
	{"00466", "Tipo documento TD20 con cedente non coerente", "Revisar el emisor del documento TD20."},
	{"00471", "Tipo documento TD16-TD19 con cedente uguale al cessionario", "Revisar emisor y receptor de la integración."},
	{"00472", "Tipo documento TD21 con cedente diverso dal cessionario", "En TD21 emisor y receptor deben coincidir."},
	{"00473", "Tipo documento TD17-TD19 con cedente italiano", "Estos tipos requieren emisor extranjero."},
	{"00474", "Natura IVA non ammessa per il tipo documento", "Revisar la natura de las líneas según el tipo de documento."},
	{"00475", "Tipo documento TD16-TD27 senza partita IVA del cessionario", "Indicar la partita IVA del receptor."},
	{"00476", "Paese del cedente e del cessionario entrambi diversi da IT", "Al menos una de las partes debe ser italiana."},
	{"00477", "Tipo documento TD27 con partita IVA non coerente", "Revisar la partita IVA del autoconsumo."},
}

// =============================================================================
// 005xx-006xx - Controlli sul lotto e sul recapito
// =============================================================================

var deliveryChecks = []catalogEntry{
	{"00501", "Lotto contenente fatture con cedenti diversi", "Enviar un lote por emisor."},
	{"00502", "Lotto contenente fatture con cessionari diversi", "Enviar un lote por cliente o documentos individuales."},
	{"00503", "Lotto contenente fatture con formati diversi", "No mezclar FPA12 y FPR12 en el mismo lote."},
	{"00600", "Recapito non riuscito al canale telematico del destinatario", "El SdI reintentará la entrega; verificar el canal del cliente."},
	{"00601", "Casella PEC del destinatario piena o non raggiungibile", "Avisar al cliente; la factura queda en su área reservada."},
	{"00602", "Canale telematico del destinatario non accreditato", "Solicitar al cliente un código destinatario válido."},
	{"00603", "Termine di recapito scaduto", "Entregar copia de cortesía al cliente; el documento ya es válido fiscalmente."},
}

// =============================================================================
// Catálogo completo
// =============================================================================

func catalog() []catalogEntry {
	groups := [][]catalogEntry{fileChecks, signatureChecks, formatChecks, partyChecks, contentChecks, deliveryChecks}
	var all []catalogEntry
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

func severityOf(code string) Severity {
	switch {
	case criticalCodes[code]:
		return SeverityCritical
	case highCodes[code]:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
