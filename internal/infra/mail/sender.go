package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// AlertSender manda email de operação quando o sync descarta leads
// demais: sinal de schema novo no Bitrix, não de lixo pontual.
type AlertSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

func NewAlertSender(host string, port int, user, password, from, to string) *AlertSender {
	return &AlertSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

func (s *AlertSender) SendSyncAlert(date string, dropped, fetched int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("⚠️ Sync de leads descartou %d registro(s) em %s", dropped, date))

	body := fmt.Sprintf(
		"O sync do dia %s descartou %d de %d leads na validação.\n\n"+
			"Descarte nessa proporção costuma indicar mudança de schema no "+
			"Bitrix (campo obrigatório novo ou renomeado). Verificar os logs "+
			"do serviço antes que os dados do dashboard fiquem defasados.\n",
		date, dropped, fetched,
	)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
