package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/crawler"
	"sjsage522/leadworker/logger"
	errs "sjsage522/leadworker/pkg/errors"
	"sjsage522/leadworker/services/searcher"
	"sjsage522/leadworker/services/store"
)

const (
	msgHelp = "👋 Я помогу найти бизнесы без сайтов - потенциальных клиентов.\n\n" +
		"Нажми /find Москва кафе 10\n" +
		"или воспользуйся кнопкой ниже для пошагового поиска."
	msgAdminHello    = "👋 Админ, напиши /admin для входа в панель управления."
	msgSubscribe     = "❗ Чтобы пользоваться ботом, подпишитесь на канал."
	msgAskCity       = "✏️ Введите город:"
	msgAskType       = "💼 Введите тип бизнеса (например: кафе):"
	msgAskCount      = "🔢 Сколько результатов найти? (макс 50):"
	msgBadCount      = "❗ Введите число от 1 до 50."
	msgBadFind       = "❗ Неверный формат. Пример: /find Москва кафе 10"
	msgBadBase       = "❗ Формат: /base Москва 10"
	msgNoAccess      = "⛔ У вас нет доступа к админ-панели."
	msgEmptyBase     = "❌ В базе нет данных по этому городу."
	msgNothingFound  = "❌ Не найдено или у всех есть сайты."
	msgSearchBroke   = "⚠️ Поиск не удался: не дождались результатов. Попробуйте позже."
	msgRateLimited   = "⏳ Такой поиск недавно выполнялся. Подождите немного."
	msgStillBlocked  = "⛔ Вы всё ещё не подписаны."
	msgAccessGranted = "✅ Доступ подтверждён! Напишите /start заново."

	searchButtonText = "🔍 Начать поиск"
	mapButtonText    = "🗺 Открыть в Яндекс Картах"
)

// Bot is the conversational front-end: it collects (city, type, count) from
// users, hands finished queries to the searcher, and renders each accepted
// lead as it is found.
type Bot struct {
	cfg      *config.Config
	tb       *tele.Bot
	store    *store.SQLiteStore
	searcher *searcher.Searcher
	log      *logger.Logger
	dialogs  *dialogs

	// channel is the subscription-gate channel; nil disables the gate.
	channel *tele.Chat

	ctx context.Context

	menu     *tele.ReplyMarkup
	btnStats tele.Btn
	btnCheck tele.Btn
}

// New creates the bot and wires its handlers.
func New(cfg *config.Config, st *store.SQLiteStore, se *searcher.Searcher) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		cfg:      cfg,
		tb:       tb,
		store:    st,
		searcher: se,
		log:      logger.ForBot(),
		dialogs:  newDialogs(),
		ctx:      context.Background(),
	}

	if cfg.ChannelID != "" {
		channel, err := tb.ChatByUsername(cfg.ChannelID)
		if err != nil {
			b.log.Warn().Err(err).Str("channel", cfg.ChannelID).
				Msg("Cannot resolve subscription channel, gate disabled")
		} else {
			b.channel = channel
		}
	}

	b.menu = &tele.ReplyMarkup{ResizeKeyboard: true}
	btnSearch := b.menu.Text(searchButtonText)
	b.menu.Reply(b.menu.Row(btnSearch))

	selector := &tele.ReplyMarkup{}
	b.btnStats = selector.Data("📊 Статистика", "stats")
	b.btnCheck = selector.Data("🔁 Проверить доступ", "check_access")

	tb.Handle("/start", b.onStart)
	tb.Handle("/find", b.onFind)
	tb.Handle("/base", b.onBase)
	tb.Handle("/admin", b.onAdmin)
	tb.Handle(&b.btnStats, b.onStats)
	tb.Handle(&b.btnCheck, b.onCheckAccess)
	tb.Handle(tele.OnText, b.onText)

	return b, nil
}

// Start runs the long poller until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.tb.Stop()
	}()
	b.log.Info().Msg("Bot started")
	b.tb.Start()
}

func (b *Bot) onStart(c tele.Context) error {
	sender := c.Sender()

	if err := b.store.SaveUser(b.ctx, sender.ID); err != nil {
		b.log.Warn().Err(err).Int64("user", sender.ID).Msg("Failed to save user")
	}

	if !b.isSubscribed(sender) {
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(b.btnCheck))
		return c.Send(msgSubscribe, markup)
	}

	if sender.ID == b.cfg.AdminID {
		return c.Send(msgAdminHello, &tele.ReplyMarkup{RemoveKeyboard: true})
	}
	return c.Send(msgHelp, b.menu)
}

func (b *Bot) onCheckAccess(c tele.Context) error {
	if b.isSubscribed(c.Sender()) {
		return c.Send(msgAccessGranted)
	}
	return c.Send(msgStillBlocked)
}

func (b *Bot) onAdmin(c tele.Context) error {
	if c.Sender().ID != b.cfg.AdminID {
		return c.Send(msgNoAccess)
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(b.btnStats))
	return c.Send("🔧 Админ-панель", markup)
}

func (b *Bot) onStats(c tele.Context) error {
	if c.Sender().ID != b.cfg.AdminID {
		return c.Send(msgNoAccess)
	}

	userCount, err := b.store.CountUsers(b.ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to count users")
	}
	orgCount, err := b.store.CountOrganizations(b.ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to count organizations")
	}
	cityCount, err := b.store.CountCities(b.ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to count cities")
	}

	text := fmt.Sprintf(
		"📊 Статистика бота:\n"+
			"👥 Количество пользователей: %d\n"+
			"🏢 Количество уникальных организаций в базе: %d\n"+
			"🌆 Количество городов в базе: %d\n"+
			"🔎 Количество поисковых запросов за сессию: %d",
		userCount, orgCount, cityCount, b.searcher.Searches(),
	)
	return c.Send(text)
}

// onFind handles the one-shot "/find <city> <type> <count>" command.
func (b *Bot) onFind(c tele.Context) error {
	args := strings.Fields(c.Message().Payload)
	if len(args) != 3 {
		return c.Send(msgBadFind)
	}
	count, err := strconv.Atoi(args[2])
	if err != nil {
		return c.Send(msgBadFind)
	}

	return b.runSearch(c, crawler.Query{City: args[0], Type: args[1], Limit: count})
}

// onBase handles "/base <city> <count>": a random sample of stored leads.
func (b *Bot) onBase(c tele.Context) error {
	args := strings.Fields(c.Message().Payload)
	if len(args) != 2 {
		return c.Send(msgBadBase)
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return c.Send(msgBadBase)
	}

	orgs, err := b.store.RandomByCity(b.ctx, args[0], count)
	if err != nil {
		b.log.Error().Err(err).Str("city", args[0]).Msg("Failed to sample organizations")
		return c.Send(msgEmptyBase)
	}
	if len(orgs) == 0 {
		return c.Send(msgEmptyBase)
	}

	for _, org := range orgs {
		if err := b.sendOrganization(c, org); err != nil {
			return err
		}
	}
	return nil
}

// onText drives the stepwise dialog and the search keyboard button.
func (b *Bot) onText(c tele.Context) error {
	id := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	if text == searchButtonText {
		b.dialogs.begin(id)
		return c.Send(msgAskCity)
	}

	dlg, ok := b.dialogs.snapshot(id)
	if !ok {
		return nil
	}

	switch dlg.step {
	case stepCity:
		dlg.city = text
		dlg.step = stepType
		b.dialogs.set(id, dlg)
		return c.Send(msgAskType)
	case stepType:
		dlg.biz = text
		dlg.step = stepCount
		b.dialogs.set(id, dlg)
		return c.Send(msgAskCount)
	case stepCount:
		count, err := strconv.Atoi(text)
		if err != nil {
			return c.Send(msgBadCount)
		}
		b.dialogs.clear(id)
		return b.runSearch(c, crawler.Query{City: dlg.city, Type: dlg.biz, Limit: count})
	}
	return nil
}

// runSearch executes one crawl and streams every accepted lead to the chat
// as it is found, then reports the terminal summary. A structural failure
// is reported distinctly from a clean zero-result completion.
func (b *Bot) runSearch(c tele.Context, q crawler.Query) error {
	if err := c.Send(fmt.Sprintf("🔍 Ищу '%s' в городе %s...", q.Type, q.City)); err != nil {
		return err
	}

	orgs, done, err := b.searcher.Search(b.ctx, q)
	if err != nil {
		if errs.IsRateLimit(err) {
			return c.Send(msgRateLimited)
		}
		if errs.IsValidation(err) {
			return c.Send(msgBadFind)
		}
		b.log.Error().Err(err).Msg("Search failed to start")
		return c.Send(msgSearchBroke)
	}

	for org := range orgs {
		if err := b.sendOrganization(c, org); err != nil {
			b.log.Warn().Err(err).Str("link", org.Link).Msg("Failed to deliver lead")
		}
	}

	outcome := <-done
	if outcome.Err != nil {
		b.log.Error().Err(outcome.Err).Msg("Search ended with failure")
		return c.Send(msgSearchBroke)
	}
	if outcome.Result.Found == 0 {
		return c.Send(msgNothingFound)
	}
	return c.Send(fmt.Sprintf("✅ Найдено: %d компаний без сайта.", outcome.Result.Found))
}

func (b *Bot) sendOrganization(c tele.Context, org crawler.Organization) error {
	text := fmt.Sprintf(
		"🏢 %s\n📍 Адрес: %s\n📞 Телефон: %s\n🌐 Сайт: ❌ Нет",
		org.Title, org.Address, org.Phone,
	)
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL(mapButtonText, org.Link)))
	return c.Send(text, markup)
}

// isSubscribed reports whether the user may use the bot. The admin and all
// users pass when no gate channel is configured.
func (b *Bot) isSubscribed(user *tele.User) bool {
	if b.channel == nil || user.ID == b.cfg.AdminID {
		return true
	}
	member, err := b.tb.ChatMemberOf(b.channel, user)
	if err != nil {
		b.log.Warn().Err(err).Int64("user", user.ID).Msg("Subscription check failed")
		return false
	}
	switch member.Role {
	case tele.Member, tele.Creator, tele.Administrator:
		return true
	}
	return false
}
