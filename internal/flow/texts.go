package flow

import (
	"fmt"

	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
)

const zipExtensions = "application/zip"

func (m *Machine) fileRequest() *Request {
	name := m.platform.Name()
	return &Request{
		Header: table.T(
			fmt.Sprintf("Select your %s file", name),
			fmt.Sprintf("Selecteer uw %s bestand", name),
		),
		Body: FileInput{
			Description: table.T(
				"Please follow the download instructions and choose the file that you stored on your device.",
				"Volg de download instructies en kies het bestand dat u opgeslagen heeft op uw apparaat.",
			),
			Extensions: zipExtensions,
		},
	}
}

func (m *Machine) retryRequest() *Request {
	name := m.platform.Name()
	return &Request{
		Header: table.T("Try again", "Probeer opnieuw"),
		Body: Confirm{
			Text: table.T(
				fmt.Sprintf("Unfortunately, we cannot process your %s file. Continue, if you are sure that you selected the right file. Try again to select a different file.", name),
				fmt.Sprintf("Helaas, kunnen we uw %s bestand niet verwerken. Weet u zeker dat u het juiste bestand heeft gekozen? Ga dan verder. Probeer opnieuw als u een ander bestand wilt kiezen.", name),
			),
			Ok:     table.T("Try again", "Probeer opnieuw"),
			Cancel: table.T("Continue", "Verder"),
		},
	}
}

func (m *Machine) choiceRequest(c *extract.Choice) *Request {
	items := make([]RadioItem, 0, len(c.Items))
	for i, it := range c.Items {
		items = append(items, RadioItem{ID: i, Value: it})
	}
	return &Request{
		Header: c.Title,
		Body: Radio{
			Title:       c.Title,
			Description: c.Description,
			Items:       items,
		},
	}
}

func (m *Machine) consentRequest(tables []table.ExtractedTable) *Request {
	name := m.platform.Name()
	return &Request{
		Header: table.T(
			fmt.Sprintf("Your %s data", name),
			fmt.Sprintf("Uw %s gegevens", name),
		),
		Body: ConsentForm{
			Tables: tables,
			Description: table.T(
				fmt.Sprintf("Below you will find a curated selection of %s data.", name),
				fmt.Sprintf("Hieronder vindt u een zorgvuldig samengestelde selectie van %s gegevens.", name),
			),
			DonateQuestion: table.T("Do you want to share this data for research?", "Wilt u deze gegevens delen voor onderzoek?"),
			DonateButton:   table.T("Yes, share for research", "Ja, deel voor onderzoek"),
		},
	}
}
