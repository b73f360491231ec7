package bitrix

import (
	"fmt"
	"time"
)

// O Bitrix carimba tudo em horário de Moscou (UTC+3). O dia de relatório
// do negócio é bucketado em UTC.
const russiaUTCOffset = 3

var remoteZone = time.FixedZone("UTC+3", russiaUTCOffset*3600)

// Leads criados na madrugada de Moscou (antes das 6h) ainda pertencem ao
// dia anterior do negócio: além das 3h de fuso, a virada do dia remoto
// leva tempo para valer localmente.
const earlyHourCutoff = 6

const DateLayout = "2006-01-02"

// LocalDay é o resultado da resolução de fuso de um timestamp do Bitrix.
type LocalDay struct {
	// CreatedAt é o instante original, como veio do Bitrix.
	CreatedAt time.Time
	// LocalCreatedAt é o timestamp ajustado para o fuso local (UTC).
	LocalCreatedAt time.Time
	// LocalDate (YYYY-MM-DD) é o dia local ao qual o lead pertence.
	LocalDate string
}

// ResolveLocalDay decide a qual dia local um lead pertence, a partir do
// DATE_CREATE cru (ISO-8601 com offset explícito).
func ResolveLocalDay(dateCreate string) (LocalDay, error) {
	t, err := time.Parse(time.RFC3339, dateCreate)
	if err != nil {
		return LocalDay{}, &TimestampError{Value: dateCreate, Err: err}
	}
	return ResolveLocalDayAt(t), nil
}

// ResolveLocalDayAt é a forma pura sobre um instante já parseado.
// Usada também pela correção de leads históricos, que parte do timestamp
// gravado no banco.
func ResolveLocalDayAt(t time.Time) LocalDay {
	remote := t.In(remoteZone)
	localCreatedAt := t.Add(-russiaUTCOffset * time.Hour).In(time.UTC)

	day := remote
	if remote.Hour() < earlyHourCutoff {
		day = remote.AddDate(0, 0, -1)
	}

	return LocalDay{
		CreatedAt:      t,
		LocalCreatedAt: localCreatedAt,
		LocalDate:      day.Format(DateLayout),
	}
}

// QueryWindow lista os dias remotos (BEGINDATE) que podem conter leads do
// dia local informado: o próprio dia e o seguinte. Leads da madrugada do
// dia remoto D+1 resolvem para o dia local D, então as duas consultas são
// necessárias e cada registro é re-bucketado individualmente depois.
func QueryWindow(localDate string) ([]string, error) {
	day, err := time.Parse(DateLayout, localDate)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q: %w", localDate, err)
	}
	return []string{localDate, day.AddDate(0, 0, 1).Format(DateLayout)}, nil
}
