package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/rates"
)

// GetLatestRates returns the latest rate table
func (handlers *Handlers) GetLatestRates(context *gin.Context) {
	handlers.respondWithRates(context, rates.Latest)
}

// GetRatesByDate returns the rate table for the :date path parameter
func (handlers *Handlers) GetRatesByDate(context *gin.Context) {
	date, err := handlers.parseDate(context.Param("date"))
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	handlers.respondWithRates(context, date)
}

func (handlers *Handlers) respondWithRates(context *gin.Context, date rates.RateDate) {
	exchangeRates, err := handlers.fetcher.FetchRates(context.Request.Context(), date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	context.JSON(http.StatusOK, exchangeRates)
}

// GetCurrencies lists the codes available on ?date= (latest by default)
func (handlers *Handlers) GetCurrencies(context *gin.Context) {
	date, err := handlers.parseDate(context.Query("date"))
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	exchangeRates, err := handlers.fetcher.FetchRates(context.Request.Context(), date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	context.JSON(http.StatusOK, models.CurrenciesResponse{
		Base:       exchangeRates.Base,
		Date:       exchangeRates.Date,
		Currencies: exchangeRates.Rates.Codes(),
	})
}

// Convert fetches the table for the requested date and converts one amount
func (handlers *Handlers) Convert(context *gin.Context) {
	var request models.ConvertRequest
	if err := context.ShouldBindJSON(&request); err != nil {
		handlers.writeError(context, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	date, err := handlers.parseDate(request.Date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	direction, err := convert.ParseDirection(request.Direction)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	formatter := handlers.formatter(request.Locale)
	amount, err := formatter.ParseAmount(request.Amount)
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	exchangeRates, err := handlers.fetcher.FetchRates(context.Request.Context(), date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	result, err := convert.Convert(exchangeRates.Rates, request.From, request.To, amount, direction)
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	context.JSON(http.StatusOK, models.ConvertResponse{
		From:      convert.NormalizeCode(request.From),
		To:        convert.NormalizeCode(request.To),
		Amount:    amount,
		Direction: string(direction),
		Date:      exchangeRates.Date,
		Result:    result,
		Formatted: formatter.Format(result),
	})
}

// ConvertBatch converts several rows against one table. A bad row is
// reported in its own entry and does not fail the request.
func (handlers *Handlers) ConvertBatch(context *gin.Context) {
	var request models.BatchConvertRequest
	if err := context.ShouldBindJSON(&request); err != nil {
		handlers.writeError(context, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	date, err := handlers.parseDate(request.Date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	direction, err := convert.ParseDirection(request.Direction)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	formatter := handlers.formatter(request.Locale)

	exchangeRates, err := handlers.fetcher.FetchRates(context.Request.Context(), date)
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	results := make([]models.BatchRowResult, len(request.Rows))
	rows := make([]convert.Row, 0, len(request.Rows))
	positions := make([]int, 0, len(request.Rows))
	for i, row := range request.Rows {
		results[i] = models.BatchRowResult{From: convert.NormalizeCode(row.From), To: convert.NormalizeCode(row.To)}
		amount, err := formatter.ParseAmount(row.Amount)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		rows = append(rows, convert.Row{Source: row.From, Target: row.To, Amount: amount})
		positions = append(positions, i)
	}

	for j, converted := range convert.ConvertRows(exchangeRates.Rates, rows, direction) {
		result := &results[positions[j]]
		result.Amount = converted.Amount
		if converted.Err != nil {
			result.Error = converted.Err.Error()
			continue
		}
		result.Result = converted.Result
		result.Formatted = formatter.Format(converted.Result)
	}

	context.JSON(http.StatusOK, models.BatchConvertResponse{
		Date:      exchangeRates.Date,
		Direction: string(direction),
		Rows:      results,
	})
}

// parseDate treats an empty value as latest and enforces the published range
func (handlers *Handlers) parseDate(input string) (rates.RateDate, error) {
	if input == "" {
		return rates.Latest, nil
	}
	date, err := rates.ParseRateDate(input)
	if err != nil {
		return rates.RateDate{}, fmt.Errorf("%w: %q", err, input)
	}
	if err := date.Validate(handlers.clock(), handlers.location); err != nil {
		return rates.RateDate{}, fmt.Errorf("%w: %s", err, date)
	}
	return date, nil
}

func (handlers *Handlers) formatter(locale string) *convert.Formatter {
	if locale == "" {
		locale = handlers.defaultLocale
	}
	return convert.NewFormatter(locale)
}
